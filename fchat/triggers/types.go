package triggers

import (
	"cogito/fchat/access"
	"cogito/fchat/commands/help"
	"cogito/fchat/state"
)

type (
	// Handler runs a matched trigger. Returned errors are logged and shown to the sender.
	Handler func(*state.State) error

	// Passive observes chat that did not match a trigger
	Passive func(*state.State)

	Registration struct {
		Trigger string
		Level   access.Level
		Path    access.Path
		Handler Handler
		Help    help.Help
	}

	Router struct {
		base          state.State
		prefix        string
		redirect      string
		registrations map[string]Registration
		passive       []Passive
	}
)
