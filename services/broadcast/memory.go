package broadcast

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
)

var ErrClosed = errors.New("broadcaster closed")

type memoryBroadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan core.Event
	nextID int
	closed bool
	done   chan struct{} // closed by Close
}

var _ core.Broadcaster = (*memoryBroadcaster)(nil)

// NewMemoryBroadcaster returns an in-process Broadcaster, for a single API instance.
func NewMemoryBroadcaster() core.Broadcaster {
	return &memoryBroadcaster{subs: make(map[int]chan core.Event), done: make(chan struct{})}
}

func (b *memoryBroadcaster) Publish(_ context.Context, evt core.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default: // slow subscriber
		}
	}
	return nil
}

func (b *memoryBroadcaster) Subscribe(ctx context.Context) (<-chan core.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	id := b.nextID
	b.nextID++
	ch := make(chan core.Event, subscriberBuffer)
	b.subs[id] = ch

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(id)
		case <-b.done:
		}
	}()
	return ch, nil
}

func (b *memoryBroadcaster) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *memoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
