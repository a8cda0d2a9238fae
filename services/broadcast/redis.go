// Package broadcast fans out app events to subscribers, in process or through Redis pub/sub.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
)

// subscriberBuffer is the number of events a slow subscriber may lag behind before events are dropped.
const subscriberBuffer = 64

// NewRedisClient connects to the configured Redis server.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

type redisBroadcaster struct {
	rdb     *redis.Client
	channel string
	logger  core.Logger

	// ctx is cancelled by Close to stop every subscription
	ctx    context.Context
	cancel context.CancelFunc
}

var _ core.Broadcaster = (*redisBroadcaster)(nil)

// NewRedisBroadcaster publishes events as JSON on the Redis pub/sub `channel`.
// It takes ownership of `rdb`, which is closed by Close.
func NewRedisBroadcaster(rdb *redis.Client, channel string, logger core.Logger) core.Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	return &redisBroadcaster{
		rdb:     rdb,
		channel: channel,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *redisBroadcaster) Publish(ctx context.Context, evt core.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	return errors.Wrap(b.rdb.Publish(ctx, b.channel, data).Err(), "publishing event")
}

func (b *redisBroadcaster) Subscribe(ctx context.Context) (<-chan core.Event, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, "subscribing to "+b.channel)
	}

	out := make(chan core.Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt core.Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn(fmt.Sprintf("decoding event from %s: %v", b.channel, err), err)
					continue
				}
				select {
				case out <- evt:
				default:
					b.logger.Warn("dropping event "+evt.ID+": subscriber is too slow", map[string]interface{}{"event": evt.Name})
				}
			}
		}
	}()
	return out, nil
}

func (b *redisBroadcaster) Close() error {
	b.cancel()
	return b.rdb.Close()
}
