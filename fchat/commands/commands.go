// Package commands implements the built-in triggers.
package commands

import (
	"cogito/fchat/commands/help"
	"cogito/fchat/state"
	"cogito/fchat/triggers"
	"cogito/logger"
)

var handlers = map[string]triggers.Handler{
	"help":      Help,
	"ls":        List,
	"ignore":    Ignore,
	"minage":    MinAge,
	"whitelist": Whitelist,
	"op":        Operator,
	"ri":        Remote,
	"report":    Report,
	"shutdown":  Shutdown,
	"status":    Status,
	"save":      Save,
}

// Registrations binds every help entry to its handler under prefix
func Registrations(prefix string) []triggers.Registration {
	var regs []triggers.Registration
	for _, item := range help.All() {
		handler, ok := handlers[item.Trigger]
		if !ok {
			logger.Warn("Help entry without a handler", "trigger", item.Trigger)
			continue
		}
		regs = append(regs, triggers.Registration{
			Trigger: prefix + item.Trigger,
			Level:   item.Level,
			Path:    item.Path,
			Handler: handler,
			Help:    item,
		})
	}
	return regs
}

// Observe is the passive handler for ordinary chat
func Observe(s *state.State) {
	s.User.Touch()
}

// persist saves state after a settings change. The write happens off the
// event loop; failures are logged and the change stays in memory.
func persist(s *state.State) {
	if s.Control == nil {
		return
	}
	trigger := s.Trigger
	s.Control.Save(func(err error) {
		if err != nil {
			logger.Warn("Failed to persist after settings change", "trigger", trigger, "error", err)
		}
	})
}
