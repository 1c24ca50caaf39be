package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultProfileTTL = time.Hour

	profilePrefix = "profile:"
	counterPrefix = "ratelimit:"
)

// Profile is the projection of a user kept in the cache. It carries the
// authorization-relevant fields so role checks can be answered from it.
type Profile struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// SessionCache stores user profiles and rate-limit counters in Redis.
type SessionCache struct {
	client     redis.UniversalClient
	profileTTL time.Duration
}

func NewSessionCache(client redis.UniversalClient, profileTTL time.Duration) *SessionCache {
	if profileTTL <= 0 {
		profileTTL = DefaultProfileTTL
	}
	return &SessionCache{client: client, profileTTL: profileTTL}
}

func (s *SessionCache) GetProfile(ctx context.Context, email string) (*Profile, error) {
	raw, err := s.client.Get(ctx, profileKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry is treated as absent; the next put overwrites it.
		return nil, ErrCacheMiss
	}
	return &p, nil
}

func (s *SessionCache) PutProfile(ctx context.Context, email string, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, profileKey(email), raw, s.profileTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SessionCache) DeleteProfile(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, profileKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Increment bumps the counter under key and returns the new value. The
// counter and its window TTL are created together in one MULTI, so the
// window is fixed from the first hit and a key can never outlive it.
func (s *SessionCache) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := counterPrefix + key
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return incr.Val(), nil
}

func (s *SessionCache) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func profileKey(email string) string {
	return profilePrefix + strings.ToLower(strings.TrimSpace(email))
}
