package commands

import (
	"cogito/fchat/channels"
	"cogito/fchat/directory"
	"cogito/fchat/incidents"
	"cogito/fchat/moderation"
	"cogito/fchat/state"
	"cogito/fchat/triggers"
	"cogito/queue"
	"cogito/settings"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLog struct {
	channel []string
	global  []string
}

func (l *fakeLog) Channel(_, text string) { l.channel = append(l.channel, text) }
func (l *fakeLog) Global(text string)     { l.global = append(l.global, text) }

type fakeControl struct {
	shutdown []string
	persists int
	err      error
}

func (c *fakeControl) Shutdown(reason string) { c.shutdown = append(c.shutdown, reason) }
func (c *fakeControl) Uptime() time.Duration  { return 90 * time.Minute }

func (c *fakeControl) Save(done func(error)) {
	c.persists++
	if done != nil {
		done(c.err)
	}
}

type noProfiles struct{}

func (noProfiles) RequestProfile(string) {}

type fixture struct {
	dir     *directory.Directory
	out     *queue.Queue
	log     *fakeLog
	control *fakeControl
	router  *triggers.Router
	channel *channels.Channel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dir:     directory.New("Cogito", []string{"Owner"}),
		out:     queue.New(),
		log:     &fakeLog{},
		control: &fakeControl{},
	}
	config := &settings.Config{
		Fchat:      settings.Fchat{TriggerPrefix: ".", RedirectOperator: "=>"},
		Moderation: settings.Moderation{DefaultResponse: "Alert"},
	}
	manager := moderation.New(f.dir, f.out, f.log, noProfiles{}, moderation.Config{TriggerPrefix: "."})
	base := state.State{
		Directory:  f.dir,
		Outbox:     f.out,
		Moderation: manager,
		ModLog:     f.log,
		Config:     config,
		Control:    f.control,
	}
	f.router = triggers.New(base, Registrations("."), Observe)

	f.channel = f.dir.GetOrCreateChannel("Frontpage", "")
	f.dir.MarkJoined(f.channel)
	f.channel.SetMods([]string{"Mod", "Cogito"})
	for _, name := range []string{"Mod", "Cogito", "Member"} {
		f.dir.GetOrCreateUser(name)
		f.channel.AddUser(name)
	}
	return f
}

func (f *fixture) say(name, body string) bool {
	return f.router.Route(f.dir.GetOrCreateUser(name), f.channel, body)
}

func (f *fixture) pm(name, body string) bool {
	return f.router.Route(f.dir.GetOrCreateUser(name), nil, body)
}

func (f *fixture) sent(t *testing.T) []string {
	t.Helper()
	var out []string
	for {
		fr, ok := f.out.Dequeue()
		if !ok {
			return out
		}
		out = append(out, fr.String())
	}
}

func TestRegistrationsCoverEveryHelpEntry(t *testing.T) {
	regs := Registrations("!")
	assert.Len(t, regs, len(handlers))
	for _, reg := range regs {
		assert.Equal(t, "!"+reg.Help.Trigger, reg.Trigger)
		assert.NotNil(t, reg.Handler)
	}
}

func TestObserveTouchesAuthor(t *testing.T) {
	f := newFixture(t)
	member := f.dir.GetOrCreateUser("Member")
	assert.True(t, member.LatestActivity.IsZero())
	assert.False(t, f.say("Member", "hello everyone"))
	assert.False(t, member.LatestActivity.IsZero())
}

func TestMinAgeShowsSettings(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".minage"))
	assert.Equal(t, []string{
		`MSG {"channel":"Frontpage","message":"Settings for channel 'Frontpage': Control system disabled. Minimum age: 0. Enforcement mode: Ignore."}`,
	}, f.sent(t))
	assert.Zero(t, f.control.persists)
}

func TestMinAgeSetsPolicy(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".minage 18"))
	assert.Equal(t, 18, f.channel.MinAge())
	assert.Equal(t, channels.Alert, f.channel.UnderageResponse, "the configured default applies when enabling")
	assert.Equal(t, 1, f.control.persists)
	require.Len(t, f.log.channel, 2)
	assert.Equal(t, "Minimum age for 'Frontpage' changed from '0' to '18' by 'Mod' (ChannelOps). Enforcement mode: Alert", f.log.channel[1])

	require.True(t, f.say("Mod", ".minage -a 21 -r Kick"))
	assert.Equal(t, 21, f.channel.MinAge())
	assert.Equal(t, channels.Kick, f.channel.UnderageResponse)

	require.True(t, f.say("Mod", ".minage 0 -r Kick"))
	assert.Equal(t, 0, f.channel.MinAge())
	assert.Equal(t, channels.Ignore, f.channel.UnderageResponse)
}

func TestMinAgeRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".minage old"))
	require.True(t, f.say("Mod", ".minage 18 -r Ban"))
	assert.Equal(t, 0, f.channel.MinAge())
	sent := f.sent(t)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "cannot parse 'old' as number")
	assert.Contains(t, sent[1], "unknown underage response")
}

func TestMinAgeDeniedToMembers(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Member", ".minage 18"))
	assert.Equal(t, 0, f.channel.MinAge())
	assert.Empty(t, f.log.channel)
}

func TestWhitelist(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".whitelist Stranger"))
	assert.False(t, f.channel.IsWhitelisted("Stranger"))
	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "only users in the channel can be added to the whitelist")

	require.True(t, f.say("Mod", ".whitelist member"))
	assert.True(t, f.channel.IsWhitelisted("Member"))
	assert.Contains(t, f.log.channel, "Adding user 'Member' to channel whitelist by order of 'Mod' (ChannelOps)")
	assert.Equal(t, 1, f.control.persists)

	f.sent(t)
	require.True(t, f.say("Mod", ".whitelist"))
	assert.Equal(t, []string{`MSG {"channel":"Frontpage","message":"Current whitelist for Channel 'Frontpage':\nMember"}`}, f.sent(t))
}

func TestListIsPrivateOnly(t *testing.T) {
	f := newFixture(t)
	other := f.dir.GetOrCreateChannel("ADH-1", "Side Room")
	f.dir.MarkJoined(other)

	require.True(t, f.pm("Member", ".ls"))
	assert.Equal(t, []string{
		`PRI {"recipient":"Member","message":"Currently joined channels, ordered by their Redirect Key, are:\n\t0: 'Frontpage' [Frontpage]\n\t1: 'Side Room' [ADH-1]"}`,
	}, f.sent(t))
}

func TestOperatorKick(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".op -k member"))
	assert.Equal(t, []string{`CKU {"channel":"Frontpage","character":"Member"}`}, f.sent(t))

	require.True(t, f.say("Mod", ".op -t 5 Member -s"))
	sent := f.sent(t)
	require.Len(t, sent, 2)
	assert.Equal(t, `CTU {"channel":"Frontpage","character":"Member","length":5}`, sent[0])
	assert.Contains(t, sent[1], "Time out for 5 minutes")
}

func TestOperatorRefusals(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"two modes", ".op -k -b Member", "one mode only"},
		{"no target", ".op -b", "not enough arguments"},
		{"absent target", ".op -k Stranger", "Unable to comply"},
		{"bad length", ".op -t 500 Member", "between 1 and 90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.True(t, f.say("Mod", tt.body))
			sent := f.sent(t)
			require.Len(t, sent, 1)
			assert.Contains(t, sent[0], tt.want)
		})
	}
}

func TestOperatorWithoutBotOps(t *testing.T) {
	f := newFixture(t)
	f.channel.SetMods([]string{"Mod"})
	require.True(t, f.say("Mod", ".op -k Member"))
	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "I am not an operator")
}

func TestRemote(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.pm("Mod", ".ri -s hello there => 0"))
	require.True(t, f.pm("Mod", ".ri -a waves => 0"))
	require.True(t, f.pm("Mod", `.ri -r STA {"status":"busy","statusmsg":"away"} => 0`))
	assert.Equal(t, []string{
		`MSG {"channel":"Frontpage","message":"hello there"}`,
		`MSG {"channel":"Frontpage","message":"/me waves"}`,
		`STA {"status":"busy","statusmsg":"away"}`,
	}, f.sent(t))
	assert.Len(t, f.log.global, 0)
	assert.Len(t, f.log.channel, 3)
}

func TestRemoteBodyKeepsInnerRedirect(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.pm("Mod", ".ri -s a => b => 0"))
	assert.Equal(t, []string{`MSG {"channel":"Frontpage","message":"a =\u003e b"}`}, f.sent(t))
}

func TestRemoteNeedsRedirect(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.pm("Owner", ".ri -s hello"))
	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "needs a channel")
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	f.channel.Incidents.Push(incidents.New("Member", "something happened", time.Now()))

	require.True(t, f.say("Mod", ".report"))
	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], `PRI {"recipient":"Mod"`)
	assert.Contains(t, sent[0], "something happened")
	assert.Zero(t, f.channel.Incidents.Len())

	require.True(t, f.say("Mod", ".report"))
	assert.Contains(t, f.sent(t)[0], "There are no incidents pending")
}

func TestIgnore(t *testing.T) {
	f := newFixture(t)
	member := f.dir.GetOrCreateUser("Member")
	require.True(t, f.pm("Member", ".ignore on"))
	assert.True(t, member.Ignore)
	require.True(t, f.pm("Member", ".ignore off"))
	assert.False(t, member.Ignore)
	assert.Equal(t, 2, f.control.persists)

	f.sent(t)
	require.True(t, f.pm("Member", ".ignore maybe"))
	assert.Contains(t, f.sent(t)[0], "expected on or off")
}

func TestSaveIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.pm("Mod", ".save"))
	assert.Zero(t, f.control.persists)

	require.True(t, f.pm("Owner", ".save"))
	assert.Equal(t, 1, f.control.persists)

	f.control.err = errors.New("disk full")
	f.sent(t)
	require.True(t, f.pm("Owner", ".save"))
	assert.Contains(t, f.sent(t)[0], "disk full")
}

func TestShutdown(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.say("Mod", ".shutdown"))
	assert.Equal(t, []string{"requested by Mod in channel Frontpage"}, f.control.shutdown)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.dir.SetGlobalOps([]string{"Global"})
	require.True(t, f.pm("Global", ".status"))
	sent := f.sent(t)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "1 hour 30 minutes")
	assert.Contains(t, sent[1], "Interval")
}

func TestHelpFiltersByLevel(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.pm("Member", ".help"))
	sent := f.sent(t)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], ".ls")
	assert.NotContains(t, sent[1], ".shutdown")

	require.True(t, f.pm("Member", ".help save"))
	assert.Contains(t, f.sent(t)[0], "There is no trigger .save you can use")

	require.True(t, f.pm("Owner", ".help .save"))
	assert.Contains(t, f.sent(t)[0], "[b].save[/b]")
}
