package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
)

// SessionRepository maintains the per-user active-session registry
// backing bearer-token validity.
type SessionRepository interface {
	// Register inserts a session and evicts the oldest entries beyond
	// maxActive in the same transaction (FIFO).
	Register(ctx context.Context, session *domain.Session, maxActive int) error

	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error)
	GetByTokenID(ctx context.Context, userID, tokenID uuid.UUID) (*domain.Session, error)

	// TouchActivity stamps last_activity for the session; false means
	// the token id has no registry entry (evicted or revoked).
	TouchActivity(ctx context.Context, userID, tokenID uuid.UUID) (bool, error)

	DeleteByTokenID(ctx context.Context, userID, tokenID uuid.UUID) (bool, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteByUserIDExcept(ctx context.Context, userID, keepTokenID uuid.UUID) error

	// DeleteIdleSince prunes sessions whose last activity predates the
	// cutoff; their tokens have long expired.
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}
