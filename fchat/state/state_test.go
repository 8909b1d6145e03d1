package state

import (
	"cogito/fchat/directory"
	"cogito/queue"
	"cogito/settings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(args ...string) *State {
	dir := directory.New("Cogito", nil)
	return &State{
		Directory: dir,
		Outbox:    queue.New(),
		Config:    &settings.Config{Fchat: settings.Fchat{TriggerPrefix: ".", RedirectOperator: "=>"}},
		User:      dir.GetOrCreateUser("Someone"),
		Trigger:   ".minage",
		Arguments: args,
	}
}

func TestSendFollowsOrigin(t *testing.T) {
	s := newState()
	s.Send("hello")
	f, ok := s.Outbox.Dequeue()
	require.True(t, ok)
	assert.Equal(t, `PRI {"recipient":"Someone","message":"hello"}`, f.String())

	s.Origin = s.Directory.GetOrCreateChannel("Frontpage", "")
	s.Channel = s.Origin
	s.Send("hello")
	f, _ = s.Outbox.Dequeue()
	assert.Equal(t, `MSG {"channel":"Frontpage","message":"hello"}`, f.String())
}

func TestArguments(t *testing.T) {
	s := newState("21", "-r", "Kick")
	assert.Equal(t, "21", s.Arg(0))
	assert.Equal(t, "", s.Arg(5))
	assert.True(t, s.HasFlag("-r"))
	value, ok := s.FlagValue("-r")
	assert.True(t, ok)
	assert.Equal(t, "Kick", value)
	_, ok = s.FlagValue("Kick")
	assert.False(t, ok)
	assert.Equal(t, "-r Kick", s.Rest(1))
	assert.Equal(t, "21 -r Kick", s.Message())
}

func TestRequireChannel(t *testing.T) {
	s := newState()
	assert.False(t, s.RequireChannel())
	f, ok := s.Outbox.Dequeue()
	require.True(t, ok)
	assert.Contains(t, f.String(), ".minage needs a channel")
	assert.Equal(t, "via PM", s.Where())
}
