package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_latestWins(t *testing.T) {
	l := NewLoader()
	started := make(chan struct{})
	firstErr := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), "owner", func(ctx context.Context) (Snapshot, error) {
			close(started)
			<-ctx.Done()
			return Snapshot{}, ctx.Err()
		})
		firstErr <- err
	}()
	<-started

	snap, err := l.Load(context.Background(), "owner", func(ctx context.Context) (Snapshot, error) {
		return Snapshot{RangeLabel: "second"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", snap.RangeLabel)

	select {
	case err := <-firstErr:
		assert.Equal(t, ErrSuperseded, err)
	case <-time.After(time.Second):
		t.Fatal("first load was not cancelled")
	}
	assert.Zero(t, l.InFlight())
}

func TestLoader_staleResultDiscarded(t *testing.T) {
	l := NewLoader()
	started := make(chan struct{})
	release := make(chan struct{})
	firstErr := make(chan error, 1)

	go func() {
		// ignores cancellation and returns a result anyway
		_, err := l.Load(context.Background(), "owner", func(ctx context.Context) (Snapshot, error) {
			close(started)
			<-release
			return Snapshot{RangeLabel: "stale"}, nil
		})
		firstErr <- err
	}()
	<-started

	snap, err := l.Load(context.Background(), "owner", func(ctx context.Context) (Snapshot, error) {
		return Snapshot{RangeLabel: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", snap.RangeLabel)

	close(release)
	assert.Equal(t, ErrSuperseded, <-firstErr)
}

func TestLoader_keysAreIndependent(t *testing.T) {
	l := NewLoader()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Snapshot, 1)

	go func() {
		snap, _ := l.Load(context.Background(), "owner1", func(ctx context.Context) (Snapshot, error) {
			close(started)
			<-release
			return Snapshot{RangeLabel: "owner1"}, ctx.Err()
		})
		done <- snap
	}()
	<-started

	snap, err := l.Load(context.Background(), "owner2", func(ctx context.Context) (Snapshot, error) {
		return Snapshot{RangeLabel: "owner2"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "owner2", snap.RangeLabel)

	close(release)
	assert.Equal(t, "owner1", (<-done).RangeLabel)
}

func TestLoader_callerGone(t *testing.T) {
	l := NewLoader()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, "owner", func(ctx context.Context) (Snapshot, error) {
		<-ctx.Done()
		return Snapshot{}, ctx.Err()
	})
	assert.Equal(t, context.Canceled, err)
	assert.Zero(t, l.InFlight())
}
