package directory

import (
	"cogito/fchat/channels"
	"cogito/fchat/users"
)

type (
	// Directory is the registry of every known user and channel. It belongs to
	// the session event loop and is never shared across goroutines.
	Directory struct {
		Character string

		users     map[string]*users.User
		channels  map[string]*channels.Channel
		joined    []string
		globalOps map[string]string
		owners    map[string]string
	}

	// Snapshot is a read-only copy of the persisted directory state
	Snapshot struct {
		Users    []users.Record    `json:"users"`
		Channels []channels.Record `json:"channels"`
	}
)
