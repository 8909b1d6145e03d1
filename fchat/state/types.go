package state

import (
	"cogito/fchat/access"
	"cogito/fchat/channels"
	"cogito/fchat/directory"
	"cogito/fchat/moderation"
	"cogito/fchat/users"
	"cogito/queue"
	"cogito/settings"
	"time"
)

type (
	// Control is what trigger handlers may ask of the running session
	Control interface {
		Shutdown(reason string)
		// Save writes a snapshot in the background. done, when set, is
		// called on the event loop with the result.
		Save(done func(error))
		Uptime() time.Duration
	}

	// State is handed to a trigger handler for one incoming message
	State struct {
		Directory  *directory.Directory
		Outbox     *queue.Queue
		Moderation *moderation.Manager
		ModLog     moderation.ModLog
		Config     *settings.Config
		Control    Control

		User *users.User
		// Origin is where the message arrived; nil for private messages
		Origin *channels.Channel
		// Channel is the channel the trigger acts on. It equals Origin unless
		// the message carried a redirect.
		Channel   *channels.Channel
		Trigger   string
		Arguments []string
		Body      string
		Level     access.Level
	}
)
