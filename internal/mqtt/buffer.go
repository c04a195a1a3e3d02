package mqtt

import "log"

// message is a publish held back while the broker is unreachable.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the most recent messages published while offline, oldest
// first. Not safe for concurrent use.
type backlog struct {
	msgs    []message
	limit   int
	dropped int
}

func newBacklog(limit int) *backlog {
	if limit < 1 {
		limit = 1
	}
	return &backlog{msgs: make([]message, 0, limit), limit: limit}
}

// add queues m, evicting the oldest message when full.
func (b *backlog) add(m message) {
	if len(b.msgs) == b.limit {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.limit)
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:len(b.msgs)-1]
	}
	b.msgs = append(b.msgs, m)
}

// take empties the backlog, returning the queued messages and how many were
// evicted since the last take.
func (b *backlog) take() ([]message, int) {
	if len(b.msgs) == 0 {
		d := b.dropped
		b.dropped = 0
		return nil, d
	}
	out := append([]message(nil), b.msgs...)
	d := b.dropped
	b.msgs = b.msgs[:0]
	b.dropped = 0
	return out, d
}

func (b *backlog) len() int {
	return len(b.msgs)
}
