package users

import (
	"cogito/helpers"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	statusNames = []string{"online", "crown", "looking", "idle", "busy", "dnd", "away", "offline"}
	ageSearch   = regexp.MustCompile(`\d{1,9}`)
)

// Key folds a character name into its directory identity
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func New(name string) *User {
	return &User{
		Name:      strings.Trim(name, "\t\r\n "),
		Status:    Online,
		Profile:   map[string]string{},
		FirstSeen: time.Now(),
	}
}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if strings.EqualFold(name, s) {
			return Status(i), nil
		}
	}
	return Offline, fmt.Errorf("unknown status %q", s)
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Alertable reports whether a moderator in this status should receive pings
func (s Status) Alertable() bool {
	return s < Busy
}

// Returning reports whether moving into this status counts as coming back
func (s Status) Returning() bool {
	return s < Idle
}

func (u *User) Key() string {
	return Key(u.Name)
}

func (u *User) String() string {
	return fmt.Sprintf("[b]Name[/b]: %s, [b]Status[/b]: %s, [b]Moderator[/b]: %s, [b]Ignored[/b]: %s, [b]Age[/b]: %d, [b]Profile[/b]: %s old, [b]Last seen[/b]: %s ago",
		u.Name,
		u.Status,
		helpers.StringToStatusIndicator(strconv.FormatBool(u.IsModerator)),
		helpers.StringToStatusIndicator(strconv.FormatBool(u.Ignore)),
		u.Age(),
		helpers.Since(u.ProfileTakenAt),
		helpers.Since(u.LatestActivity))
}

// Age returns the profile age, AgeUnknown when no age is listed and
// AgeUnparsed when the field holds no digits.
func (u *User) Age() int {
	raw, ok := u.Profile["age"]
	if !ok {
		return AgeUnknown
	}
	return ParseAge(raw)
}

// ParseAge extracts the first run of digits from a free-form age field
func ParseAge(raw string) int {
	digits := ageSearch.FindString(raw)
	if digits == "" {
		return AgeUnparsed
	}
	age, err := strconv.Atoi(digits)
	if err != nil {
		return AgeUnparsed
	}
	return age
}

// ProfileStale reports whether the cached profile is older than refresh
func (u *User) ProfileStale(refresh time.Duration, now time.Time) bool {
	return u.ProfileTakenAt.IsZero() || now.Sub(u.ProfileTakenAt) >= refresh
}

// SetProfile replaces the cached profile bag
func (u *User) SetProfile(data map[string]string, takenAt time.Time) {
	u.Profile = make(map[string]string, len(data))
	for k, v := range data {
		u.Profile[strings.ToLower(k)] = v
	}
	if gender, ok := u.Profile["gender"]; ok && u.Gender == "" {
		u.Gender = gender
	}
	u.ProfileTakenAt = takenAt
}

func (u *User) Touch() {
	u.LatestActivity = time.Now()
}

func (u *User) SetIgnore(ignore bool) {
	u.Ignore = ignore
}

// Record is the persisted form of a user
type Record struct {
	Name           string            `json:"name"`
	Ignore         bool              `json:"ignore"`
	Gender         string            `json:"gender,omitempty"`
	Profile        map[string]string `json:"profile,omitempty"`
	ProfileTakenAt time.Time         `json:"profileTakenAt,omitempty"`
}

func (u *User) Record() Record {
	profile := make(map[string]string, len(u.Profile))
	for k, v := range u.Profile {
		profile[k] = v
	}
	return Record{
		Name:           u.Name,
		Ignore:         u.Ignore,
		Gender:         u.Gender,
		Profile:        profile,
		ProfileTakenAt: u.ProfileTakenAt,
	}
}

func FromRecord(r Record) *User {
	u := New(r.Name)
	u.Ignore = r.Ignore
	u.Gender = r.Gender
	u.SetProfile(r.Profile, r.ProfileTakenAt)
	u.Status = Offline
	return u
}
