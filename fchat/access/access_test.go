package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name                       string
		channelOp, globalOp, owner bool
		want                       Level
	}{
		{"nobody", false, false, false, Everyone},
		{"channel op", true, false, false, ChannelOps},
		{"global op", false, true, false, GlobalOps},
		{"global and channel op", true, true, false, GlobalOps},
		{"owner", false, false, true, RootOnly},
		{"everything", true, true, true, RootOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.channelOp, tt.globalOp, tt.owner))
		})
	}
}

func TestPathAllows(t *testing.T) {
	assert.True(t, All.Allows(true))
	assert.True(t, All.Allows(false))
	assert.True(t, ChannelOnly.Allows(false))
	assert.False(t, ChannelOnly.Allows(true))
	assert.True(t, PMOnly.Allows(true))
	assert.False(t, PMOnly.Allows(false))
}

// Raising the sender's level never turns an allowed invocation into a denied one
func TestAuthorizedIsMonotonic(t *testing.T) {
	levels := []Level{Everyone, ChannelOps, GlobalOps, RootOnly}
	paths := []Path{All, ChannelOnly, PMOnly}
	for _, required := range levels {
		for _, path := range paths {
			for _, private := range []bool{true, false} {
				allowed := false
				for _, level := range levels {
					got := Authorized(level, private, required, path)
					if allowed {
						assert.True(t, got, "level %s lost access to %s/%s", level, required, path)
					}
					allowed = allowed || got
				}
			}
		}
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "ChannelOps", ChannelOps.String())
	assert.Equal(t, "PMOnly", PMOnly.String())
	assert.Equal(t, "Unknown", Level(9).String())
}
