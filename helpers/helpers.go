package helpers

import (
	"time"

	"github.com/hako/durafmt"
)

// UserLink renders a clickable character name
func UserLink(name string) string {
	return "[user]" + name + "[/user]"
}

// Since returns how long ago t was in a human readable form
func Since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return Duration(time.Since(t))
}

// Duration renders the two largest units of d, e.g. "2 hours 5 minutes"
func Duration(d time.Duration) string {
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}

// StringToStatusIndicator converts a string to a status indicator string.
func StringToStatusIndicator(s string) string {
	switch s {
	case "":
		return "[N/A]"
	case "true":
		return "ON"
	case "false":
		return "OFF"
	}
	return "[?]"
}
