package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay forwards locally published events to other instances over
// Redis pub/sub and publishes their events into the local hub.
type RedisRelay struct {
	client *redis.Client
	inbox  inbox
	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisRelay(client *redis.Client, origin string, local Publisher, log *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client: client,
		inbox:  inbox{origin: origin, local: local, log: log.With(zap.String("component", "redis_relay"))},
	}
}

// Start subscribes to every room channel and waits for the confirmation.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.pubsub = r.client.PSubscribe(ctx, ChannelPrefixRoom+"*")
	if _, err := r.pubsub.Receive(ctx); err != nil {
		_ = r.pubsub.Close()
		return fmt.Errorf("subscribe room channels: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go r.listen(listenCtx)
	return nil
}

func (r *RedisRelay) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	var err error
	if r.pubsub != nil {
		err = r.pubsub.Close()
	}
	r.wg.Wait()
	return err
}

func (r *RedisRelay) Publish(ctx context.Context, evt Event) {
	data, err := r.inbox.seal(evt)
	if err != nil {
		r.inbox.log.Error("relay_encode_failed", zap.Error(err))
		return
	}
	channel := ChannelPrefixRoom + evt.RoomID.String()
	if err := r.client.Publish(context.WithoutCancel(ctx), channel, data).Err(); err != nil {
		r.inbox.log.Warn("relay_publish_failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (r *RedisRelay) listen(ctx context.Context) {
	defer r.wg.Done()
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.inbox.receive(ctx, []byte(msg.Payload))
		}
	}
}
