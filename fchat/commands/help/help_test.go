package help

import (
	"cogito/fchat/access"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableFiltersByLevel(t *testing.T) {
	all := All()
	everyone := Available(all, access.Everyone)
	owner := Available(all, access.RootOnly)

	assert.Len(t, owner, len(all))
	assert.Less(t, len(everyone), len(all))
	for _, item := range everyone {
		assert.Equal(t, access.Everyone, item.Level, item.Trigger)
	}
	_, found := Find(everyone, "shutdown")
	assert.False(t, found)
}

func TestTriggersAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, item := range All() {
		assert.False(t, seen[item.Trigger], "duplicate trigger %s", item.Trigger)
		seen[item.Trigger] = true
	}
}

func TestFormat(t *testing.T) {
	item, ok := Find(All(), "MINAGE")
	require.True(t, ok)
	text := Format(".", item)
	assert.Contains(t, text, "[b].minage[/b]")
	assert.Contains(t, text, "(ChannelOps, All)")
	assert.Contains(t, text, "Example: .minage 18 -r Kick")

	assert.Equal(t, "[b].ls[/b], [b].help[/b]", FormatList(".", []Help{{Trigger: "ls"}, {Trigger: "help"}}))
}
