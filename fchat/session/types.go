package session

import (
	"cogito/fchat/directory"
	"cogito/fchat/frame"
	"cogito/fchat/moderation"
	"cogito/fchat/transport"
	"cogito/fchat/triggers"
	"cogito/queue"
	"cogito/settings"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	ClientName = "COGITO"

	dispatchInterval = 100 * time.Millisecond
	inboundBuffer    = 512
	resultBuffer     = 64
	profileTimeout   = 30 * time.Second
	stepTimeout      = 10 * time.Second
)

// Version is reported at login and in the bot's status message
var Version = "2.0.0"

type (
	// Dialer opens a frame connection to url
	Dialer func(ctx context.Context, url string) (transport.Conn, error)

	// API is the account service: login tickets and character profiles
	API interface {
		Ticket(ctx context.Context) (string, error)
		Invalidate()
		RunRefresher(ctx context.Context) error
		FetchProfile(ctx context.Context, name string) (map[string]string, error)
	}

	// Store persists directory snapshots per character
	Store interface {
		Persist(character string, snapshot directory.Snapshot) error
		Load(character string) (directory.Snapshot, error)
		Merge()
	}

	// ModLog is the set of text logs the session owns and closes: the
	// moderation trail plus chat and private transcripts
	ModLog interface {
		moderation.ModLog
		Chat(channel, text string)
		Private(name, text string)
		Close() error
	}

	Options struct {
		Config *settings.Config
		API    API
		Store  Store
		ModLog ModLog
		Dial   Dialer
	}

	// Session owns the connection and every piece of chat state. All state
	// is mutated on the event loop goroutine only.
	Session struct {
		config     *settings.Config
		directory  *directory.Directory
		outbox     *queue.Queue
		moderation *moderation.Manager
		router     *triggers.Router
		modlog     ModLog
		api        API
		store      Store
		dial       Dialer
		log        *slog.Logger

		inbound chan frame.Frame
		results chan moderation.ProfileResult
		tasks   chan func()

		lifetime context.Context
		workers  errgroup.Group
		cron     *cron.Cron

		stop     chan struct{}
		stopOnce sync.Once
		reason   string
		started  time.Time
		finished bool
	}

	// handler is one entry of the opcode table
	handler func(s *Session, f frame.Frame) error

	// DispatchError is a failed opcode handler
	DispatchError struct {
		Opcode  string
		Payload string
		Err     error
	}
)

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s %s: %v", e.Opcode, e.Payload, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
