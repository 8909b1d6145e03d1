package commands

import (
	"cogito/fchat/state"
)

// Save persists users and channels now and replies once the write is done
func Save(s *state.State) error {
	s.Control.Save(func(err error) {
		if err != nil {
			s.SendError("Save failed: " + err.Error())
			return
		}
		s.SendSuccess("Users and channels saved.")
	})
	return nil
}
