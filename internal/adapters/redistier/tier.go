package redistier

// Package redistier provides the Redis-backed durable credential tier plus
// the cross-instance clear bus, for deployments where several dashboard
// instances share one operator credential.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

const (
	keyToken    = "token"
	keyExpires  = "expires_at"
	keyRemember = "remember"
)

// Tier is a Redis-based ports.TokenTier. The credential is held under three
// keys (token, ISO-8601 expiry, remember flag) beneath a common prefix,
// matching the persisted layout of the durable tier.
type Tier struct {
	client redis.UniversalClient
	prefix string
}

// NewTier creates a Redis durable tier with the default "credential:" prefix.
func NewTier(client redis.UniversalClient) *Tier {
	return NewTierWithPrefix(client, "credential:")
}

// NewTierWithPrefix creates a Redis durable tier with a custom key prefix.
func NewTierWithPrefix(client redis.UniversalClient, prefix string) *Tier {
	return &Tier{client: client, prefix: prefix}
}

func (t *Tier) Put(ctx context.Context, cred domainauth.Credential) error {
	if cred.Token == "" {
		return errors.New("credential token cannot be empty")
	}

	// TTL keeps Redis from accumulating dead credentials even if a clear is
	// never observed. The store still enforces expiry itself on read.
	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return errors.New("credential is expired")
	}

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, t.prefix+keyToken, cred.Token, ttl)
		pipe.Set(ctx, t.prefix+keyExpires, cred.ExpiresAt.UTC().Format(time.RFC3339), ttl)
		pipe.Set(ctx, t.prefix+keyRemember, cred.Remember, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (t *Tier) Get(ctx context.Context) (domainauth.Credential, error) {
	vals, err := t.client.MGet(ctx, t.prefix+keyToken, t.prefix+keyExpires, t.prefix+keyRemember).Result()
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("redis get credential: %w", err)
	}

	token, ok := vals[0].(string)
	if !ok || token == "" {
		return domainauth.Credential{}, ports.ErrNoCredential
	}

	cred := domainauth.Credential{Token: token}
	if raw, isStr := vals[1].(string); isStr {
		if ts, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			cred.ExpiresAt = ts
		}
	}
	if raw, isStr := vals[2].(string); isStr {
		cred.Remember = raw == "1" || raw == "true"
	}
	return cred, nil
}

func (t *Tier) Delete(ctx context.Context) error {
	err := t.client.Del(ctx, t.prefix+keyToken, t.prefix+keyExpires, t.prefix+keyRemember).Err()
	if err != nil {
		return fmt.Errorf("redis delete credential: %w", err)
	}
	return nil
}

// Bus is a Redis pub/sub ports.ClearBus carrying the single documented
// message: "credential cleared".
type Bus struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewBus creates a clear bus on the given pub/sub channel.
func NewBus(client redis.UniversalClient, channel string, logger *slog.Logger) *Bus {
	if channel == "" {
		channel = "credential:cleared"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{client: client, channel: channel, logger: logger}
}

func (b *Bus) PublishClear(ctx context.Context, notice ports.ClearNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal clear notice: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish clear notice: %w", err)
	}
	return nil
}

func (b *Bus) SubscribeClear(handler func(ports.ClearNotice)) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	sub := b.client.Subscribe(ctx, b.channel)

	go func() {
		for msg := range sub.Channel() {
			var notice ports.ClearNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				b.logger.Warn("malformed clear notice", "error", err)
				continue
			}
			handler(notice)
		}
	}()

	return func() {
		stop()
		if err := sub.Close(); err != nil {
			b.logger.Warn("close clear subscription failed", "error", err)
		}
	}
}
