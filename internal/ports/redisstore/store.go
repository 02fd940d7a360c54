// Package redisstore keeps the user-game associations used for
// reconnection in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"thirteen/internal/ports"
)

// Games older than this without a settlement are stale and dropped.
const associationTTL = 6 * time.Hour

// GameStore records which game each user is part of.
type GameStore struct {
	rdb *redis.Client
}

func NewGameStore(rdb *redis.Client) *GameStore {
	return &GameStore{rdb: rdb}
}

func activeGameKey(userID string) string {
	return "thirteen:active_game:" + userID
}

func connectedKey(gameID string) string {
	return "thirteen:connected:" + gameID
}

// FindActiveGameFor returns the game the user is associated with.
func (s *GameStore) FindActiveGameFor(ctx context.Context, userID string) (string, bool, error) {
	gameID, err := s.rdb.Get(ctx, activeGameKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find active game for %s: %w", userID, err)
	}
	return gameID, true, nil
}

// MarkConnected records connectivity and refreshes the association.
func (s *GameStore) MarkConnected(ctx context.Context, userID, gameID string, connected bool) error {
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, activeGameKey(userID), gameID, associationTTL)
	if connected {
		pipe.SAdd(ctx, connectedKey(gameID), userID)
	} else {
		pipe.SRem(ctx, connectedKey(gameID), userID)
	}
	pipe.Expire(ctx, connectedKey(gameID), associationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark connected %s/%s: %w", userID, gameID, err)
	}
	return nil
}

// ClearAssociation removes the user-game link after settlement or fold.
func (s *GameStore) ClearAssociation(ctx context.Context, userID, gameID string) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, activeGameKey(userID))
	pipe.SRem(ctx, connectedKey(gameID), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear association %s/%s: %w", userID, gameID, err)
	}
	return nil
}

var _ ports.GameStorePort = (*GameStore)(nil)
