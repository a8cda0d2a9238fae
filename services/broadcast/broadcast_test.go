package broadcast

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/tests"
)

const channel = "educontact-broadcast"

func newRedisBroadcaster(t *testing.T) (core.Broadcaster, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb, err := NewRedisClient(context.Background(), core.RedisConfig{Address: mr.Addr(), Channel: channel})
	require.NoError(t, err)

	b := NewRedisBroadcaster(rdb, channel, testutil.NewLogger())
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func receive(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case evt, ok := <-events:
		require.True(t, ok, "events channel closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return core.Event{}
}

func assertClosed(t *testing.T, events <-chan core.Event) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("events channel not closed")
		}
	}
}

func newEvent() core.Event {
	return core.Event{
		ID:         "c1",
		Name:       core.EventContactCreated,
		OwnerID:    "owner",
		Payload:    json.RawMessage(`{"id":"c1","method":"email"}`),
		OccurredAt: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
	}
}

func TestBroadcasters(t *testing.T) {
	impls := []struct {
		name string
		new  func(t *testing.T) core.Broadcaster
	}{
		{name: "memory", new: func(t *testing.T) core.Broadcaster { return NewMemoryBroadcaster() }},
		{name: "redis", new: func(t *testing.T) core.Broadcaster { b, _ := newRedisBroadcaster(t); return b }},
	}
	for _, impl := range impls {
		t.Run(impl.name+"/fan out", func(t *testing.T) {
			b := impl.new(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sub1, err := b.Subscribe(ctx)
			require.NoError(t, err)
			sub2, err := b.Subscribe(ctx)
			require.NoError(t, err)

			evt := newEvent()
			require.NoError(t, b.Publish(ctx, evt))

			for _, sub := range []<-chan core.Event{sub1, sub2} {
				got := receive(t, sub)
				assert.Equal(t, evt.ID, got.ID)
				assert.Equal(t, evt.Name, got.Name)
				assert.Equal(t, evt.OwnerID, got.OwnerID)
				assert.JSONEq(t, string(evt.Payload), string(got.Payload))
				assert.True(t, evt.OccurredAt.Equal(got.OccurredAt))
			}
		})

		t.Run(impl.name+"/unsubscribe on cancel", func(t *testing.T) {
			b := impl.new(t)
			ctx, cancel := context.WithCancel(context.Background())

			sub, err := b.Subscribe(ctx)
			require.NoError(t, err)
			cancel()
			assertClosed(t, sub)
		})

		t.Run(impl.name+"/close", func(t *testing.T) {
			b := impl.new(t)
			sub, err := b.Subscribe(context.Background())
			require.NoError(t, err)

			require.NoError(t, b.Close())
			assertClosed(t, sub)
		})
	}
}

func TestRedisBroadcaster_skipsMalformed(t *testing.T) {
	b, mr := newRedisBroadcaster(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish(channel, "not json")
	require.NoError(t, b.Publish(ctx, newEvent()))

	assert.Equal(t, "c1", receive(t, sub).ID)
}

func TestNewRedisClient_unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewRedisClient(ctx, core.RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestMemoryBroadcaster_closed(t *testing.T) {
	b := NewMemoryBroadcaster()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.Equal(t, ErrClosed, b.Publish(context.Background(), newEvent()))
	_, err := b.Subscribe(context.Background())
	assert.Equal(t, ErrClosed, err)
}

func TestMemoryBroadcaster_closeReleasesSubscriptions(t *testing.T) {
	before := runtime.NumGoroutine()

	b := NewMemoryBroadcaster()
	subs := make([]<-chan core.Event, 0, 10)
	for i := 0; i < 10; i++ {
		sub, err := b.Subscribe(context.Background()) // never done
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	require.NoError(t, b.Close())

	for _, sub := range subs {
		assertClosed(t, sub)
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
