package moderation

import (
	"cogito/fchat/directory"
	"cogito/fchat/frame"
	"cogito/fchat/incidents"
	"cogito/queue"
	"time"
)

type (
	// Outbox is the part of the send queue the manager writes to
	Outbox interface {
		Enqueue(frame.Frame) int
		EnqueueMessage(queue.Message) error
	}

	// ModLog receives audit lines for a channel or for the bot as a whole
	ModLog interface {
		Channel(channel, text string)
		Global(text string)
	}

	// ProfileRequester starts a profile fetch off the event loop. The result
	// must come back through Manager.Resume.
	ProfileRequester interface {
		RequestProfile(name string)
	}

	// ProfileResult is a finished fetch, delivered to the event loop
	ProfileResult struct {
		Name    string
		Profile map[string]string
		TakenAt time.Time
		Err     error
	}

	// Outcome is the terminal state of one age check
	Outcome int

	// Decision records the outcome of a check for one user in one channel
	Decision struct {
		Channel string
		User    string
		Outcome Outcome
	}

	Config struct {
		TriggerPrefix  string
		ProfileRefresh time.Duration
	}

	// Manager owns incident escalation and the age workflow. Like the
	// directory it is only touched from the event loop.
	Manager struct {
		directory *directory.Directory
		out       Outbox
		log       ModLog
		profiles  ProfileRequester
		config    Config

		// pending holds the channels waiting on a profile fetch, by user key
		pending map[string][]string

		now  func() time.Time
		pick func(n int) int
	}

	ChannelReport struct {
		Channel   string
		Incidents []incidents.Incident
	}

	// Report is everything drained for one moderator
	Report struct {
		Channels []ChannelReport
	}
)

const (
	NoAction Outcome = iota
	Pending
	Alerted
	Warned
	Kicked
)
