package analytics

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrSuperseded is returned by Loader.Load when a newer load for the same key started before it finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// LoadFunc computes a Snapshot; it must honour ctx cancellation.
type LoadFunc func(ctx context.Context) (Snapshot, error)

// Loader applies latest-wins to concurrent loads sharing a key:
// starting a load cancels the in-flight one, whose result is then discarded.
type Loader struct {
	mu   sync.Mutex
	gen  uint64
	runs map[string]loadRun
}

type loadRun struct {
	gen    uint64
	cancel context.CancelFunc
}

func NewLoader() *Loader {
	return &Loader{runs: make(map[string]loadRun)}
}

func (l *Loader) Load(ctx context.Context, key string, fn LoadFunc) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	l.gen++
	gen := l.gen
	if prev, ok := l.runs[key]; ok {
		prev.cancel()
	}
	l.runs[key] = loadRun{gen: gen, cancel: cancel}
	l.mu.Unlock()

	snap, err := fn(ctx)

	l.mu.Lock()
	current := l.runs[key].gen == gen
	if current {
		delete(l.runs, key)
	}
	l.mu.Unlock()

	if !current {
		return Snapshot{}, ErrSuperseded
	}
	return snap, err
}

// InFlight returns the number of keys with a load in progress.
func (l *Loader) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runs)
}
