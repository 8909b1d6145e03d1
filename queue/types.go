package queue

import (
	"cogito/fchat/frame"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultInterval = 550 * time.Millisecond
	DefaultChatMax  = 4096
	DefaultPrivMax  = 50000
)

type (
	// Queue is the outbound FIFO. Frames leave it one per interval, in the
	// order they were enqueued.
	Queue struct {
		elements []frame.Frame
		mutex    sync.Mutex
		wake     chan struct{}

		limiter  *rate.Limiter
		interval time.Duration
		chatMax  int
		privMax  int
	}

	// Message is a chat body addressed to exactly one of a channel or a recipient
	Message struct {
		Channel   string
		Recipient string
		Body      string
	}

	// Transmit writes one frame to the connection
	Transmit func(context.Context, frame.Frame) error
)
