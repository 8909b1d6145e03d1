package users

import (
	"time"
)

type (
	// Status is the ordinal presence state reported by STA and NLN
	Status int

	User struct {
		Name           string
		Status         Status
		StatusMessage  string
		Gender         string
		IsModerator    bool
		Ignore         bool
		Profile        map[string]string
		ProfileTakenAt time.Time
		LatestActivity time.Time
		FirstSeen      time.Time
	}
)

const (
	Online Status = iota
	Crown
	Looking
	Idle
	Busy
	DoNotDisturb
	Away
	Offline
)

const (
	// AgeUnknown means the profile carries no age field at all
	AgeUnknown = -1
	// AgeUnparsed means an age field exists but holds no number
	AgeUnparsed = 0
)
