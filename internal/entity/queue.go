package entity

import "strings"

// DefaultQueueSize bounds the per-player outbound queue
const DefaultQueueSize = 1000

// Queue is a bounded FIFO of encoded packets flushed once per tick.
// Pushes beyond capacity are dropped.
type Queue struct {
	items   []string
	max     int
	dropped int
}

func NewQueue(max int) *Queue {
	if max <= 0 {
		max = DefaultQueueSize
	}
	return &Queue{max: max}
}

// Push appends a packet; it reports false when the packet was dropped
func (q *Queue) Push(packet string) bool {
	if packet == "" {
		return true
	}
	if len(q.items) >= q.max {
		q.dropped++
		return false
	}
	q.items = append(q.items, packet)
	return true
}

// Format concatenates the queued packets into one frame
func (q *Queue) Format() string {
	return strings.Join(q.items, "")
}

func (q *Queue) Clear() {
	q.items = q.items[:0]
}

func (q *Queue) Len() int { return len(q.items) }

// Dropped returns and resets the overflow counter
func (q *Queue) Dropped() int {
	n := q.dropped
	q.dropped = 0
	return n
}
