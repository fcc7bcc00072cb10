package logx

import "sync"

// DefaultRingSize is the capacity used when NewRing is given zero.
const DefaultRingSize = 64

// Ring is a bounded in-memory sink. Every Write is kept as one message; when
// full the oldest message is dropped. Messages are consumed oldest-first.
type Ring struct {
	mu    sync.Mutex
	msgs  [][]byte
	head  int
	count int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &Ring{msgs: make([][]byte, capacity)}
}

func (r *Ring) Write(p []byte) (int, error) {
	msg := make([]byte, len(p))
	copy(msg, p)

	r.mu.Lock()
	defer r.mu.Unlock()
	tail := (r.head + r.count) % len(r.msgs)
	r.msgs[tail] = msg
	if r.count == len(r.msgs) {
		r.head = (r.head + 1) % len(r.msgs)
	} else {
		r.count++
	}
	return len(p), nil
}

// Len is the number of buffered messages.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// PeekLen is the byte length of the message Pop would return, or 0.
func (r *Ring) PeekLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return 0
	}
	return len(r.msgs[r.head])
}

// Pop removes and returns the oldest message.
func (r *Ring) Pop() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return nil, false
	}
	msg := r.msgs[r.head]
	r.msgs[r.head] = nil
	r.head = (r.head + 1) % len(r.msgs)
	r.count--
	return msg, true
}
