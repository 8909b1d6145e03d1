package directory

import (
	"testing"

	"cogito/fchat/channels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	d := New("Cogito", nil)

	a := d.GetOrCreateUser("Someone")
	b := d.GetOrCreateUser("someone")
	c := d.GetOrCreateUser(" SOMEONE ")
	assert.Same(t, a, b)
	assert.Same(t, a, c)
	assert.Equal(t, 1, d.UserCount())

	ch1 := d.GetOrCreateChannel("Frontpage", "")
	ch2 := d.GetOrCreateChannel("Frontpage", "")
	assert.Same(t, ch1, ch2)
	assert.Equal(t, 1, d.ChannelCount())
}

func TestGetOrCreateChannelOverrideName(t *testing.T) {
	d := New("Cogito", nil)
	c := d.GetOrCreateChannel("ADH-abc", "Private Room")
	assert.Equal(t, "ADH-abc", c.Key)
	assert.Equal(t, "Private Room", c.Name)
	assert.True(t, c.IsPrivate())

	found, ok := d.ChannelByName("Private Room")
	require.True(t, ok)
	assert.Same(t, c, found)
}

func TestJoinedIndexes(t *testing.T) {
	d := New("Cogito", nil)
	a := d.GetOrCreateChannel("A", "")
	b := d.GetOrCreateChannel("B", "")
	c := d.GetOrCreateChannel("C", "")

	assert.Equal(t, 0, d.MarkJoined(a))
	assert.Equal(t, 1, d.MarkJoined(b))
	assert.Equal(t, 2, d.MarkJoined(c))
	assert.Equal(t, 1, d.MarkJoined(b), "joining twice keeps the index")

	d.MarkLeft(a)
	assert.Equal(t, -1, a.JoinIndex)
	assert.Equal(t, 0, b.JoinIndex)
	assert.Equal(t, 1, c.JoinIndex)

	got, ok := d.JoinedAt(1)
	require.True(t, ok)
	assert.Same(t, c, got)
	_, ok = d.JoinedAt(2)
	assert.False(t, ok)
	_, ok = d.JoinedAt(-1)
	assert.False(t, ok)
}

func TestModeratedByAndRefresh(t *testing.T) {
	d := New("Cogito", nil)
	a := d.GetOrCreateChannel("A", "")
	b := d.GetOrCreateChannel("B", "")
	d.MarkJoined(a)
	d.MarkJoined(b)
	a.SetMods([]string{"Mod"})
	u := d.GetOrCreateUser("Mod")

	d.RefreshModerator("Mod")
	assert.True(t, u.IsModerator)
	assert.Equal(t, []*channels.Channel{a}, d.ModeratedBy("mod"))

	a.RemoveMod("Mod")
	d.RefreshModerator("Mod")
	assert.False(t, u.IsModerator)
	assert.Empty(t, d.ModeratedBy("Mod"))
}

func TestLeaveAll(t *testing.T) {
	d := New("Cogito", nil)
	a := d.GetOrCreateChannel("A", "")
	b := d.GetOrCreateChannel("B", "")
	d.MarkJoined(a)
	d.MarkJoined(b)
	a.AddUser("Someone")

	left := d.LeaveAll("someone")
	assert.Equal(t, []*channels.Channel{a}, left)
	assert.False(t, a.HasUser("Someone"))
	assert.Empty(t, d.LeaveAll("someone"))
}

func TestAccessLists(t *testing.T) {
	d := New("Cogito", []string{"Root"})
	d.SetGlobalOps([]string{"Global"})
	assert.True(t, d.IsOwner("root"))
	assert.True(t, d.IsGlobalOp("GLOBAL"))
	assert.False(t, d.IsGlobalOp("Root"))
	assert.True(t, d.IsSelf("cogito"))
}

func TestSnapshotPrunesAndRestores(t *testing.T) {
	d := New("Cogito", nil)
	d.GetOrCreateUser("Chatty")
	quiet := d.GetOrCreateUser("Quiet")
	quiet.SetIgnore(true)
	c := d.GetOrCreateChannel("Frontpage", "")
	c.SetMinAge(21, channels.Kick)
	c.AddWhitelist("Friend")

	snapshot := d.Snapshot()
	require.Len(t, snapshot.Users, 1)
	assert.Equal(t, "Quiet", snapshot.Users[0].Name)
	require.Len(t, snapshot.Channels, 1)

	assert.Equal(t, 2, d.UserCount(), "pruning never touches the live directory")

	restored := New("Cogito", nil)
	restored.Restore(snapshot)
	u, ok := restored.LookupUser("quiet")
	require.True(t, ok)
	assert.True(t, u.Ignore)
	rc, ok := restored.LookupChannel("Frontpage")
	require.True(t, ok)
	assert.Equal(t, 21, rc.MinAge())
	assert.True(t, rc.IsWhitelisted("friend"))
}
