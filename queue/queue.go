package queue

import (
	"cogito/fchat/frame"
	"cogito/logger"
	"cogito/telemetry"
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

var ErrNoTarget = errors.New("message has neither a channel nor a recipient")

func New() *Queue {
	q := &Queue{
		wake:     make(chan struct{}, 1),
		interval: DefaultInterval,
		chatMax:  DefaultChatMax,
		privMax:  DefaultPrivMax,
	}
	q.limiter = rate.NewLimiter(rate.Every(q.interval), 1)
	telemetry.SetSendInterval(q.interval)
	return q
}

// Enqueue adds a frame to the end of the queue and returns the new depth
func (q *Queue) Enqueue(f frame.Frame) int {
	q.mutex.Lock()
	q.elements = append(q.elements, f)
	depth := len(q.elements)
	q.mutex.Unlock()

	telemetry.SetQueueDepth(depth)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return depth
}

// EnqueueMessage splits the body at the server's size limit and queues one
// MSG or PRI per part, in order.
func (q *Queue) EnqueueMessage(m Message) error {
	if m.Channel == "" && m.Recipient == "" {
		return ErrNoTarget
	}
	if m.Body == "" {
		logger.Debug("Dropping empty message", "channel", m.Channel, "recipient", m.Recipient)
		return nil
	}

	q.mutex.Lock()
	chatMax, privMax := q.chatMax, q.privMax
	q.mutex.Unlock()

	if m.Channel != "" {
		for _, part := range Split(m.Body, chatMax) {
			q.Enqueue(frame.MustNew("MSG", frame.ChannelMessage{Channel: m.Channel, Message: part}))
		}
		return nil
	}
	for _, part := range Split(m.Body, privMax) {
		q.Enqueue(frame.MustNew("PRI", frame.PrivateMessage{Recipient: m.Recipient, Message: part}))
	}
	return nil
}

// Dequeue removes and returns the first frame of the queue
func (q *Queue) Dequeue() (frame.Frame, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if len(q.elements) == 0 {
		return frame.Frame{}, false
	}
	f := q.elements[0]
	q.elements = q.elements[1:]
	telemetry.SetQueueDepth(len(q.elements))
	return f, true
}

// Peek returns the first frame of the queue without removing it
func (q *Queue) Peek() (frame.Frame, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.elements) == 0 {
		return frame.Frame{}, false
	}
	return q.elements[0], true
}

func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.elements)
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear drops every pending frame and returns how many were dropped
func (q *Queue) Clear() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	dropped := len(q.elements)
	q.elements = nil
	telemetry.SetQueueDepth(0)
	if dropped > 0 {
		logger.Info("Send queue cleared", "dropped", dropped)
	}
	return dropped
}

// SetInterval changes the pause between frames. It takes effect on the next frame.
func (q *Queue) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("send interval must be positive, got %s", d)
	}
	q.mutex.Lock()
	q.interval = d
	q.mutex.Unlock()

	q.limiter.SetLimit(rate.Every(d))
	telemetry.SetSendInterval(d)
	logger.Info("Send interval updated", "interval", d)
	return nil
}

func (q *Queue) Interval() time.Duration {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.interval
}

// SetLimits updates the per-frame body limits. Non-positive values are ignored.
func (q *Queue) SetLimits(chatMax, privMax int) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if chatMax > 0 {
		q.chatMax = chatMax
	}
	if privMax > 0 {
		q.privMax = privMax
	}
}

func (q *Queue) Limits() (chatMax, privMax int) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.chatMax, q.privMax
}

// Run sends queued frames until ctx is cancelled or transmit fails. A frame
// that fails to transmit is dropped and the error returned.
func (q *Queue) Run(ctx context.Context, transmit Transmit) error {
	for {
		if q.IsEmpty() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
				continue
			}
		}
		if err := q.next(ctx, transmit); err != nil {
			return err
		}
	}
}

// Flush sends everything still queued, honouring the interval, and returns
// once the queue is empty or ctx expires.
func (q *Queue) Flush(ctx context.Context, transmit Transmit) error {
	for !q.IsEmpty() {
		if err := q.next(ctx, transmit); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) next(ctx context.Context, transmit Transmit) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}
	f, ok := q.Dequeue()
	if !ok {
		return nil
	}
	if err := transmit(ctx, f); err != nil {
		logger.Warn("Dropping frame after send failure", "opcode", f.Opcode, "error", err)
		return fmt.Errorf("send %s: %w", f.Opcode, err)
	}
	telemetry.FrameSent()
	return nil
}

// Split cuts body into parts of at most max bytes without breaking a UTF-8
// sequence. Concatenating the parts yields body.
func Split(body string, max int) []string {
	if max <= 0 || len(body) <= max {
		return []string{body}
	}

	var parts []string
	for len(body) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		parts = append(parts, body[:cut])
		body = body[cut:]
	}
	if body != "" {
		parts = append(parts, body)
	}
	return parts
}
