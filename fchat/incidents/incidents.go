// Package incidents holds moderation events that could not be delivered to a
// moderator when they happened.
package incidents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05"

type Incident struct {
	ID      uuid.UUID
	Subject string
	Time    time.Time
	Details string
}

func New(subject, details string, at time.Time) Incident {
	return Incident{
		ID:      uuid.New(),
		Subject: subject,
		Time:    at,
		Details: details,
	}
}

func (i Incident) String() string {
	return fmt.Sprintf("<%s> [%s]: %s", i.Time.Format(timeLayout), i.Subject, i.Details)
}

// Queue is a FIFO of incidents for one channel. It is owned by the event loop
// and is not safe for concurrent use.
type Queue struct {
	items []Incident
}

func (q *Queue) Push(i Incident) {
	q.items = append(q.items, i)
}

// Take removes and returns every queued incident in insertion order
func (q *Queue) Take() []Incident {
	items := q.items
	q.items = nil
	return items
}

// Filter keeps the incidents for which keep returns true, preserving order,
// and returns the ones it dropped.
func (q *Queue) Filter(keep func(Incident) bool) (dropped []Incident) {
	kept := q.items[:0]
	for _, i := range q.items {
		if keep(i) {
			kept = append(kept, i)
		} else {
			dropped = append(dropped, i)
		}
	}
	for j := len(kept); j < len(q.items); j++ {
		q.items[j] = Incident{}
	}
	q.items = kept
	return dropped
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queue contents
func (q *Queue) Items() []Incident {
	return append([]Incident(nil), q.items...)
}
