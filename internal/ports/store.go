package ports

import "context"

// GameStorePort is the persisted-state collaborator used by reconnection.
// It remembers which game a user is part of so a fresh connection can be
// routed back to the right room.
type GameStorePort interface {
	// FindActiveGameFor returns the game the user currently belongs to,
	// or ok=false when there is none.
	FindActiveGameFor(ctx context.Context, userID string) (gameID string, ok bool, err error)

	// MarkConnected records the user's connectivity for the given game and
	// establishes the user-game association if missing.
	MarkConnected(ctx context.Context, userID, gameID string, connected bool) error

	// ClearAssociation removes the user-game association.
	ClearAssociation(ctx context.Context, userID, gameID string) error
}
