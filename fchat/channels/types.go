package channels

import (
	"cogito/fchat/incidents"
)

type (
	Mode int

	// UnderageResponse is what happens when a joiner is below the minimum age
	UnderageResponse int

	Channel struct {
		// Key is the server id: the room id for private rooms, the title for public ones
		Key              string
		Name             string
		Mode             Mode
		Description      string
		UserCount        int
		UnderageResponse UnderageResponse
		JoinIndex        int
		Incidents        incidents.Queue

		minAge    int
		users     map[string]string
		mods      map[string]string
		whitelist map[string]string
	}
)

const (
	ModeChat Mode = iota
	ModeAds
	ModeBoth
)

const (
	Kick UnderageResponse = iota
	Warn
	Alert
	Ignore
)
