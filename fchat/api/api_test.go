package api

import (
	"cogito/settings"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	tickets  atomic.Int32
	profiles atomic.Int32
	ticket   string
	profile  string
	server   *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		ticket:  `{"ticket":"abc123","error":""}`,
		profile: `{"error":"","info":{"contact":{"group":"Contact details","items":[{"name":"Age","value":"25 &amp; counting"},{"name":"Gender","value":"Female"}]},"sexual":{"group":"Sexual details","items":[{"name":"Orientation","value":"Straight"}]}}}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ticket", func(w http.ResponseWriter, r *http.Request) {
		f.tickets.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "moderator", r.PostForm.Get("account"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.Equal(t, "true", r.PostForm.Get("no_characters"))
		w.Write([]byte(f.ticket))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		f.profiles.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "abc123", r.PostForm.Get("ticket"))
		assert.NotEmpty(t, r.PostForm.Get("name"))
		w.Write([]byte(f.profile))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeServer) client(ticketPath string) *Client {
	return New(settings.Fchat{
		Account:    "moderator",
		Password:   "hunter2",
		TicketUrl:  f.server.URL + ticketPath,
		ProfileUrl: f.server.URL + "/profile",
	}, f.server.Client())
}

func TestTicketIsCached(t *testing.T) {
	f := newFakeServer(t)
	c := f.client("/ticket")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ticket, err := c.Ticket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", ticket)

	now = now.Add(28 * time.Minute)
	_, err = c.Ticket(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.tickets.Load())

	now = now.Add(time.Minute)
	_, err = c.Ticket(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.tickets.Load(), "a 29 minute old ticket is renewed")

	c.Invalidate()
	_, err = c.Ticket(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.tickets.Load())
}

func TestTicketErrors(t *testing.T) {
	f := newFakeServer(t)
	f.ticket = `{"ticket":"","error":"Login failed."}`
	_, err := f.client("/ticket").Ticket(context.Background())
	require.ErrorIs(t, err, ErrTicket)
	assert.Contains(t, err.Error(), "Login failed.")

	_, err = f.client("/broken").Ticket(context.Background())
	require.ErrorIs(t, err, ErrTicket)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchProfile(t *testing.T) {
	f := newFakeServer(t)
	c := f.client("/ticket")

	profile, err := c.FetchProfile(context.Background(), "Someone")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"age":         "25 & counting",
		"gender":      "Female",
		"orientation": "Straight",
	}, profile)
	assert.EqualValues(t, 1, f.tickets.Load())

	_, err = c.FetchProfile(context.Background(), "Someone Else")
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.tickets.Load(), "the ticket is reused between fetches")
	assert.EqualValues(t, 2, f.profiles.Load())
}

func TestFetchProfileErrorInvalidatesTicket(t *testing.T) {
	f := newFakeServer(t)
	f.profile = `{"error":"Invalid ticket."}`
	c := f.client("/ticket")

	_, err := c.FetchProfile(context.Background(), "Someone")
	require.ErrorIs(t, err, ErrProfile)
	assert.Zero(t, c.TicketAge())

	_, err = c.FetchProfile(context.Background(), "Someone")
	require.Error(t, err)
	assert.EqualValues(t, 2, f.tickets.Load())
}

func TestRunRefresherStops(t *testing.T) {
	f := newFakeServer(t)
	c := f.client("/ticket")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.RunRefresher(ctx), context.Canceled)
}
