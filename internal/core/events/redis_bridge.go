package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisClient opens a client with short network timeouts.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisBridge relays local change events to other instances over a Redis
// pub/sub channel and hands remote ones to a callback.
type RedisBridge struct {
	rdb     *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

type envelope struct {
	Origin string    `json:"origin"`
	Event  BaseEvent `json:"event"`
}

func NewRedisBridge(rdb *redis.Client, channel string, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Attach forwards every change event published on bus.
func (b *RedisBridge) Attach(bus *EventBus) {
	bus.SubscribeAll(ChangeEvents, b.forward)
}

func (b *RedisBridge) forward(ctx context.Context, e Event) error {
	payload, err := b.encode(e)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.EventType(), err)
	}
	return nil
}

// Listen blocks until ctx is done, calling onRemote for each event that
// another instance published.
func (b *RedisBridge) Listen(ctx context.Context, onRemote func(Event)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("listening for remote changes", "channel", b.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if ev, remote := b.decode(msg.Payload); remote {
				onRemote(ev)
			}
		}
	}
}

func (b *RedisBridge) PingContext(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBridge) encode(e Event) (string, error) {
	data, _ := e.Payload().(map[string]interface{})
	raw, err := json.Marshal(envelope{
		Origin: b.origin,
		Event: BaseEvent{
			ID:        e.EventID(),
			Type:      e.EventType(),
			Timestamp: e.OccurredAt(),
			Data:      data,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode event %s: %w", e.EventType(), err)
	}
	return string(raw), nil
}

// decode reports false for our own messages and for payloads that do not parse.
func (b *RedisBridge) decode(payload string) (BaseEvent, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("dropping malformed change notification", "error", err)
		return BaseEvent{}, false
	}
	if env.Origin == b.origin {
		return BaseEvent{}, false
	}
	return env.Event, true
}
