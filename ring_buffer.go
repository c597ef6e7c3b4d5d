package jobqueue

import "github.com/pkg/errors"

// RingBuffer is a fixed-capacity first-in-first-out store of jobs.
//
// Jobs leave in the order they were inserted; any reordering is done by
// draining and reinserting. RingBuffer performs no locking of its own,
// callers must serialize access (see Manager).
type RingBuffer struct {
	buf        []Job // circular buffer
	head, tail int   // read/write indices
	size       int   // number of jobs currently buffered
}

// NewRingBuffer creates a buffer holding at most capacity jobs.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{buf: make([]Job, capacity)}
}

// Len returns the number of jobs currently stored.
func (b *RingBuffer) Len() int { return b.size }

// Cap returns the fixed capacity.
func (b *RingBuffer) Cap() int { return len(b.buf) }

// Free returns the number of unoccupied slots.
func (b *RingBuffer) Free() int { return len(b.buf) - b.size }

func (b *RingBuffer) IsEmpty() bool { return b.size == 0 }
func (b *RingBuffer) IsFull() bool  { return b.size == len(b.buf) }

// Insert stores j at the tail.
//
// Insert never grows the buffer: when it is full ErrCapacityExceeded is
// returned and the buffer is left unchanged.
func (b *RingBuffer) Insert(j Job) error {
	if b.size == len(b.buf) {
		return ErrCapacityExceeded
	}
	b.buf[b.tail] = j
	b.tail++
	if b.tail == len(b.buf) {
		b.tail = 0
	}
	b.size++
	return nil
}

// Remove takes the oldest job from the head and clears its slot.
func (b *RingBuffer) Remove() (Job, error) {
	if b.size == 0 {
		return Job{}, ErrEmptyBuffer
	}
	j := b.buf[b.head]
	b.buf[b.head] = Job{}
	b.head++
	if b.head == len(b.buf) {
		b.head = 0
	}
	b.size--
	return j, nil
}

// Snapshot returns the occupied slots from head to tail.
func (b *RingBuffer) Snapshot() []Job {
	out := make([]Job, 0, b.size)
	idx := b.head
	for range b.size {
		out = append(out, b.buf[idx])
		idx++
		if idx == len(b.buf) {
			idx = 0
		}
	}
	return out
}

// check verifies the index bookkeeping.
func (b *RingBuffer) check() error {
	c := len(b.buf)
	if b.size < 0 || b.size > c {
		return errors.Wrapf(ErrInvariantViolation, "buffer size %d outside [0, %d]", b.size, c)
	}
	if (b.head+b.size)%c != b.tail {
		return errors.Wrapf(ErrInvariantViolation, "buffer indices head=%d tail=%d disagree with size %d", b.head, b.tail, b.size)
	}
	return nil
}
