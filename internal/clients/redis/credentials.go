package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys and the event channel. Defaults to "coursemarket:credentials".
	Prefix  string
	Profile string
}

// CredentialStore implements session.Store on a redis hash so several client
// processes share one login. Clears are published so peers can drop their copy.
type CredentialStore struct {
	log     *logger.Logger
	rdb     *goredis.Client
	key     string
	channel string
	profile string
}

type credentialEvent struct {
	Profile string `json:"profile"`
	Kind    string `json:"kind"`
}

const (
	eventCleared = "cleared"
	eventSaved   = "saved"
)

func NewCredentialStore(log *logger.Logger, opts Options) (*CredentialStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newCredentialStore(log, rdb, opts), nil
}

func newCredentialStore(log *logger.Logger, rdb *goredis.Client, opts Options) *CredentialStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "coursemarket:credentials"
	}
	profile := opts.Profile
	if profile == "" {
		profile = "default"
	}
	return &CredentialStore{
		log:     log.With("service", "RedisCredentialStore"),
		rdb:     rdb,
		key:     prefix + ":" + profile,
		channel: prefix + ":events",
		profile: profile,
	}
}

func (s *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("redis hgetall: %w", err)
	}
	return domain.Credentials{AccessToken: vals["access"], RefreshToken: vals["refresh"]}, nil
}

func (s *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	if err := s.rdb.HSet(ctx, s.key, "access", creds.AccessToken, "refresh", creds.RefreshToken).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return s.publish(ctx, eventSaved)
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return s.publish(ctx, eventCleared)
}

func (s *CredentialStore) publish(ctx context.Context, kind string) error {
	raw, err := json.Marshal(credentialEvent{Profile: s.profile, Kind: kind})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

// WatchCleared calls onCleared whenever any process clears this profile's
// credentials. It returns once the subscription is live; the forwarder stops with ctx.
func (s *CredentialStore) WatchCleared(ctx context.Context, onCleared func()) error {
	if onCleared == nil {
		return fmt.Errorf("onCleared callback required")
	}
	sub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev credentialEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					s.log.Warn("bad credential event payload", "error", err)
					continue
				}
				if ev.Profile == s.profile && ev.Kind == eventCleared {
					onCleared()
				}
			}
		}
	}()
	return nil
}

func (s *CredentialStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
