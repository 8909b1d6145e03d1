// Package session runs the connection to the chat server: login, the event
// loop, the opcode table and the ordered shutdown.
package session

import (
	"cogito/fchat/commands"
	"cogito/fchat/directory"
	"cogito/fchat/frame"
	"cogito/fchat/moderation"
	"cogito/fchat/state"
	"cogito/fchat/transport"
	"cogito/fchat/triggers"
	"cogito/logger"
	"cogito/queue"
	"cogito/telemetry"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func New(options Options) *Session {
	config := options.Config
	s := &Session{
		config:    config,
		directory: directory.New(config.Fchat.Character, config.Fchat.Owners),
		outbox:    queue.New(),
		modlog:    options.ModLog,
		api:       options.API,
		store:     options.Store,
		dial:      options.Dial,
		log:       logger.Session(config.Fchat.Character),
		inbound:   make(chan frame.Frame, inboundBuffer),
		results:   make(chan moderation.ProfileResult, resultBuffer),
		tasks:     make(chan func(), resultBuffer),
		lifetime:  context.Background(),
		stop:      make(chan struct{}),
		started:   time.Now(),
	}
	if s.dial == nil {
		s.dial = func(ctx context.Context, url string) (transport.Conn, error) {
			conn, err := transport.Dial(ctx, url)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}
	}

	s.moderation = moderation.New(s.directory, s.outbox, s.modlog, s, moderation.Config{
		TriggerPrefix:  config.Fchat.TriggerPrefix,
		ProfileRefresh: config.Moderation.ProfileRefresh(),
	})
	base := state.State{
		Directory:  s.directory,
		Outbox:     s.outbox,
		Moderation: s.moderation,
		ModLog:     s.modlog,
		Config:     config,
		Control:    s,
	}
	s.router = triggers.New(base, commands.Registrations(config.Fchat.TriggerPrefix), commands.Observe)
	return s
}

// Run restores saved state and keeps the session connected until parent is
// cancelled or Shutdown is called. Both lead to the same ordered shutdown.
func (s *Session) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()
	s.lifetime = ctx
	go func() {
		select {
		case <-parent.Done():
			s.Shutdown(context.Cause(parent).Error())
		case <-s.stop:
		case <-ctx.Done():
		}
		cancel()
	}()

	s.restore()
	if err := s.schedule(); err != nil {
		return err
	}
	s.workers.Go(func() error {
		if err := s.api.RunRefresher(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("Ticket refresher stopped", "error", err)
		}
		return nil
	})

	delay := s.config.Fchat.ReconnectDelay()
	for {
		err := s.connectAndRun(ctx)
		if ctx.Err() != nil {
			break
		}
		s.log.Error("Connection lost", "error", err, "retry", delay)
		telemetry.Reconnected()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.shutdown()
	return nil
}

// Shutdown asks the session to stop. Only the first call has an effect.
func (s *Session) Shutdown(reason string) {
	s.stopOnce.Do(func() {
		s.reason = reason
		s.log.Info("Shutdown requested", "reason", reason)
		close(s.stop)
	})
}

// Save takes a snapshot on the event loop and writes it on a worker. When
// done is set it runs back on the loop with the outcome.
func (s *Session) Save(done func(error)) {
	snapshot := s.directory.Snapshot()
	s.workers.Go(func() error {
		err := s.store.Persist(s.config.Fchat.Character, snapshot)
		if err != nil {
			s.log.Warn("Save failed", "error", err)
		}
		if done != nil {
			s.post(func() { done(err) })
		}
		return nil
	})
}

func (s *Session) Uptime() time.Duration {
	return time.Since(s.started)
}

// RequestProfile fetches a profile on a worker and hands the result back to
// the event loop.
func (s *Session) RequestProfile(name string) {
	lifetime := s.lifetime
	s.workers.Go(func() error {
		ctx, cancel := context.WithTimeout(lifetime, profileTimeout)
		defer cancel()

		profile, err := s.api.FetchProfile(ctx, name)
		result := moderation.ProfileResult{Name: name, Profile: profile, TakenAt: time.Now(), Err: err}
		select {
		case s.results <- result:
		case <-lifetime.Done():
		}
		return nil
	})
}

func (s *Session) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Session) restore() {
	snapshot, err := s.store.Load(s.config.Fchat.Character)
	if err != nil {
		s.log.Warn("Failed to load saved state, starting empty", "error", err)
		return
	}
	s.directory.Restore(snapshot)
}

// schedule starts the periodic save and merge jobs
func (s *Session) schedule() error {
	s.cron = cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)))
	if _, err := s.cron.AddFunc(s.config.Storage.SaveSchedule, func() { s.post(func() { s.Save(nil) }) }); err != nil {
		return fmt.Errorf("invalid save schedule %q: %w", s.config.Storage.SaveSchedule, err)
	}
	if _, err := s.cron.AddFunc(s.config.Storage.MergeSchedule, s.store.Merge); err != nil {
		return fmt.Errorf("invalid merge schedule %q: %w", s.config.Storage.MergeSchedule, err)
	}
	s.cron.Start()
	return nil
}

// post hands task to the event loop
func (s *Session) post(task func()) {
	select {
	case s.tasks <- task:
	case <-s.lifetime.Done():
	}
}

// persist is the blocking save used by shutdown. The write runs as a
// tracked worker so a timed out write is still waited for.
func (s *Session) persist(ctx context.Context) error {
	snapshot := s.directory.Snapshot()
	done := make(chan error, 1)
	s.workers.Go(func() error {
		done <- s.store.Persist(s.config.Fchat.Character, snapshot)
		return nil
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("persist: %w", ctx.Err())
	}
}

func (s *Session) connectAndRun(ctx context.Context) error {
	log := s.log.With("attempt", uuid.NewString())
	log.Info("Connecting", "url", s.config.Fchat.Url())

	conn, err := s.dial(ctx, s.config.Fchat.Url())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	s.reset()
	if err := s.login(ctx, conn); err != nil {
		return err
	}
	log.Info("Identification sent")

	group, gctx := errgroup.WithContext(ctx)
	sent := make(chan struct{})
	group.Go(func() error {
		return s.read(gctx, conn)
	})
	group.Go(func() error {
		defer close(sent)
		return s.outbox.Run(gctx, conn.WriteFrame)
	})
	group.Go(func() error {
		return s.loop(gctx, conn, sent)
	})
	return group.Wait()
}

// reset forgets everything tied to the previous connection
func (s *Session) reset() {
	for _, c := range s.directory.Joined() {
		s.directory.MarkLeft(c)
	}
	s.directory.SetGlobalOps(nil)
	s.outbox.Clear()
	telemetry.SetJoinedChannels(0)
}

func (s *Session) login(ctx context.Context, conn transport.Conn) error {
	ticket, err := s.api.Ticket(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	identify := frame.MustNew("IDN", frame.Identify{
		Method:    "ticket",
		Account:   s.config.Fchat.Account,
		Ticket:    ticket,
		Character: s.config.Fchat.Character,
		Cname:     ClientName,
		Cversion:  Version,
	})
	if err := conn.WriteFrame(ctx, identify); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	telemetry.FrameSent()
	return nil
}

// read pushes inbound frames to the loop. PIN is answered here so a full
// send queue cannot starve it.
func (s *Session) read(ctx context.Context, conn transport.Conn) error {
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			if errors.Is(err, frame.ErrMalformedFrame) {
				telemetry.FrameMalformed()
				s.log.Warn("Dropping malformed frame", "error", err)
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		telemetry.FrameReceived(f.Opcode)

		if f.Opcode == "PIN" {
			if err := conn.WriteFrame(ctx, frame.MustNew("PIN", nil)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			continue
		}

		select {
		case s.inbound <- f:
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) loop(ctx context.Context, conn transport.Conn, sent <-chan struct{}) error {
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.stopping() {
				s.finish(conn, sent)
			}
			conn.Close()
			return ctx.Err()
		case <-ticker.C:
			s.drain()
		case result := <-s.results:
			s.resume(result)
		case task := <-s.tasks:
			task()
		}
	}
}

// drain dispatches every frame that has arrived, in arrival order
func (s *Session) drain() {
	for {
		select {
		case f := <-s.inbound:
			s.dispatch(f)
		default:
			return
		}
	}
}

func (s *Session) resume(result moderation.ProfileResult) {
	for _, decision := range s.moderation.Resume(result) {
		s.log.Debug("Age check resumed", "channel", decision.Channel, "user", decision.User, "outcome", decision.Outcome)
	}
}

func (s *Session) dispatch(f frame.Frame) {
	h, ok := handlers[f.Opcode]
	if !ok {
		s.log.Debug("Ignoring opcode", "opcode", f.Opcode)
		return
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return h(s, f)
	}()
	if err != nil {
		telemetry.DispatchFailed(f.Opcode)
		err = &DispatchError{Opcode: f.Opcode, Payload: string(f.Payload), Err: err}
		logger.Frame(f.Opcode).Warn("Frame handler failed", "error", err)
	}
}

// finish runs the connected part of the shutdown on the loop: abandon
// incidents, drain the send queue, then persist.
func (s *Session) finish(conn transport.Conn, sent <-chan struct{}) {
	abandoned := s.moderation.Abandon()
	s.log.Info("Stopped accepting work", "reason", s.reason, "abandoned", abandoned)

	s.step("drain send queue", func(ctx context.Context) error {
		select {
		case <-sent:
		case <-ctx.Done():
			return ctx.Err()
		}
		return s.outbox.Flush(ctx, conn.WriteFrame)
	})
	s.step("persist", s.persist)
	s.finished = true
}

// shutdown releases what the session owns once the connection is gone
func (s *Session) shutdown() {
	if !s.finished {
		s.moderation.Abandon()
		s.step("persist", s.persist)
		s.finished = true
	}

	cronDone := s.cron.Stop()
	s.step("stop scheduler", func(ctx context.Context) error {
		select {
		case <-cronDone.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	s.step("stop workers", func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			s.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err := s.modlog.Close(); err != nil {
		s.log.Warn("Failed to close moderation logs", "error", err)
	}
	s.log.Info("Session stopped", "uptime", s.Uptime())
}

// step runs one shutdown step under a timeout, logging instead of failing
func (s *Session) step(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	if err := run(ctx); err != nil {
		s.log.Warn("Shutdown step did not complete", "step", name, "error", err)
		return
	}
	s.log.Debug("Shutdown step complete", "step", name)
}
