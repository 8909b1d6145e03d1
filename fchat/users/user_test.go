package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeSentinels(t *testing.T) {
	u := New("Someone")
	assert.Equal(t, AgeUnknown, u.Age(), "no profile means unknown")

	u.SetProfile(map[string]string{"Age": "I am 27 years old"}, time.Now())
	assert.Equal(t, 27, u.Age())

	u.SetProfile(map[string]string{"age": "ageless"}, time.Now())
	assert.Equal(t, AgeUnparsed, u.Age())

	u.SetProfile(map[string]string{"age": "0"}, time.Now())
	assert.Equal(t, 0, u.Age())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in        string
		want      Status
		alertable bool
		returning bool
	}{
		{"online", Online, true, true},
		{"crown", Crown, true, true},
		{"looking", Looking, true, true},
		{"idle", Idle, true, false},
		{"busy", Busy, false, false},
		{"dnd", DoNotDisturb, false, false},
		{"away", Away, false, false},
		{"offline", Offline, false, false},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
		assert.Equal(t, tt.alertable, got.Alertable(), tt.in)
		assert.Equal(t, tt.returning, got.Returning(), tt.in)
	}

	_, err := ParseStatus("sleeping")
	assert.Error(t, err)
}

func TestProfileStale(t *testing.T) {
	now := time.Now()
	u := New("Someone")
	assert.True(t, u.ProfileStale(time.Hour, now))

	u.SetProfile(map[string]string{"age": "30"}, now.Add(-30*time.Minute))
	assert.False(t, u.ProfileStale(time.Hour, now))
	assert.True(t, u.ProfileStale(time.Hour, now.Add(31*time.Minute)))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "some one", Key("  Some One\t"))
	assert.Equal(t, New(" Some One\n").Key(), Key("some one"))
}
