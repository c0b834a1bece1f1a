// ABOUTME: Bounded blocking byte FIFO between audio producer and consumer
// ABOUTME: The sole hand-off point reconciling push and pull schedules
package bridge

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned from Push after the bridge has been closed.
var ErrClosed = errors.New("bridge: closed")

// Bridge is a bounded, ordered byte buffer shared between exactly one
// producer and one consumer. Push blocks while the buffer is full, Pull
// blocks until the requested bytes are available. The capacity bounds how
// much audio sits between the streaming session's write callbacks and the
// voice transport's synchronous read loop, which bounds added latency.
type Bridge struct {
	ch        chan byte
	closed    chan struct{}
	closeOnce sync.Once
}

// DefaultCapacity keeps only a handful of samples in flight. Larger values
// trade latency for fewer producer/consumer wakeups.
const DefaultCapacity = 24

// New creates a bridge with the given byte capacity.
func New(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bridge{
		ch:     make(chan byte, capacity),
		closed: make(chan struct{}),
	}
}

// Push appends bytes in order, blocking while the buffer is full.
// Only one producer may call Push. Returns ErrClosed once Close is called.
func (b *Bridge) Push(data []byte) error {
	for _, v := range data {
		select {
		case b.ch <- v:
		case <-b.closed:
			return ErrClosed
		}
	}
	return nil
}

// Pull fills buf completely, in push order, blocking until enough bytes
// arrive. Only one consumer may call Pull. After Close it drains whatever
// remains and then returns io.EOF.
func (b *Bridge) Pull(buf []byte) (int, error) {
	for i := range buf {
		select {
		case v := <-b.ch:
			buf[i] = v
		case <-b.closed:
			// Closed: take what is still buffered, then EOF
			select {
			case v := <-b.ch:
				buf[i] = v
			default:
				return i, io.EOF
			}
		}
	}
	return len(buf), nil
}

// Read implements io.Reader for the consumer side so the bridge can be
// handed to the voice transport as a raw byte source.
func (b *Bridge) Read(buf []byte) (int, error) {
	return b.Pull(buf)
}

// Close releases both ends. Blocked pushes fail with ErrClosed; blocked
// pulls drain buffered bytes and then see io.EOF.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Len returns the number of buffered, unpulled bytes.
func (b *Bridge) Len() int {
	return len(b.ch)
}

// Cap returns the bridge capacity.
func (b *Bridge) Cap() int {
	return cap(b.ch)
}
