package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const bridgeChannel = "wfm:realtime"

// Bridge fans events out across instances over Redis pub/sub. When no Redis
// URL is configured the publisher falls back to local-only broadcast.
type Bridge struct {
	hub *Hub
	rdb *redis.Client
}

func NewBridge(hub *Hub, redisURL string) (*Bridge, error) {
	if redisURL == "" {
		return &Bridge{hub: hub}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Bridge{hub: hub, rdb: rdb}, nil
}

// Start runs the subscribe loop until ctx is cancelled. A no-op without Redis.
func (b *Bridge) Start(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	go func() {
		sub := b.rdb.Subscribe(ctx, bridgeChannel)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Warn("realtime bridge decode failed", "err", err)
					continue
				}
				b.hub.Broadcast(event)
			}
		}
	}()
}

// Publish routes the event through Redis when configured so every instance
// sees it; otherwise it broadcasts to the local hub directly.
func (b *Bridge) Publish(ctx context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if b.rdb == nil {
		b.hub.Broadcast(event)
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("realtime bridge marshal failed", "type", event.Type, "err", err)
		return
	}
	if err := b.rdb.Publish(ctx, bridgeChannel, payload).Err(); err != nil {
		slog.Warn("realtime bridge publish failed, broadcasting locally", "err", err)
		b.hub.Broadcast(event)
	}
}

func (b *Bridge) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
