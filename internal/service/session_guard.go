package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionGuard serialises turn processing per session. Acquire fails with
// ErrConcurrentTurn while another turn for the same session is in flight;
// different sessions never contend.
type SessionGuard interface {
	Acquire(ctx context.Context, sessionID uint) (release func(), err error)
}

// NewRedisSessionGuard builds a guard backed by redis SET NX, usable across
// replicas. The TTL bounds how long a crashed holder can block a session.
func NewRedisSessionGuard(client *redis.Client, ttl time.Duration, logger zerolog.Logger) SessionGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &redisSessionGuard{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_guard").Logger(),
	}
}

type redisSessionGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func (g *redisSessionGuard) Acquire(ctx context.Context, sessionID uint) (func(), error) {
	key := fmt.Sprintf("hireloop:turn_guard:%d", sessionID)

	acquired, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire session guard: %w", err)
	}

	if !acquired {
		return nil, ErrConcurrentTurn
	}

	release := func() {
		if err := g.client.Del(context.Background(), key).Err(); err != nil {
			g.logger.Warn().Err(err).Uint("session_id", sessionID).Msg("failed to release session guard")
		}
	}

	return release, nil
}

// NewMemorySessionGuard builds a single-process guard for deployments without redis.
func NewMemorySessionGuard() SessionGuard {
	return &memorySessionGuard{held: make(map[uint]struct{})}
}

type memorySessionGuard struct {
	mu   sync.Mutex
	held map[uint]struct{}
}

func (g *memorySessionGuard) Acquire(ctx context.Context, sessionID uint) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[sessionID]; busy {
		return nil, ErrConcurrentTurn
	}

	g.held[sessionID] = struct{}{}

	release := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.held, sessionID)
	}

	return release, nil
}
