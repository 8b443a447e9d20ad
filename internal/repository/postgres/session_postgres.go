package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/repository"
)

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Register inserts the session and evicts the oldest rows beyond
// maxActive inside one transaction.
func (r *sessionRepository) Register(ctx context.Context, session *domain.Session, maxActive int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO sessions (
			id, user_id, token_id, device_info, ip_address, last_activity, created_at
		) VALUES (
			:id, :user_id, :token_id, :device_info, :ip_address, :last_activity, :created_at
		)`

	if _, err := tx.NamedExecContext(ctx, insert, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	evict := `
		DELETE FROM sessions
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM sessions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )`

	if _, err := tx.ExecContext(ctx, evict, session.UserID, maxActive); err != nil {
		return fmt.Errorf("failed to evict old sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session registration: %w", err)
	}
	return nil
}

// GetByUserID retrieves the user's registry, oldest first.
func (r *sessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	query := `
		SELECT id, user_id, token_id, device_info, ip_address, last_activity, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at ASC`

	var sessions []*domain.Session
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get sessions by user id: %w", err)
	}

	return sessions, nil
}

// GetByTokenID retrieves a single registry entry.
func (r *sessionRepository) GetByTokenID(ctx context.Context, userID, tokenID uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token_id, device_info, ip_address, last_activity, created_at
		FROM sessions
		WHERE user_id = $1 AND token_id = $2`

	var session domain.Session
	err := r.db.GetContext(ctx, &session, query, userID, tokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to get session by token id: %w", err)
	}

	return &session, nil
}

// TouchActivity stamps last_activity; absence means the session was
// evicted or revoked.
func (r *sessionRepository) TouchActivity(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	query := `
		UPDATE sessions
		SET last_activity = NOW()
		WHERE user_id = $1 AND token_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to touch session activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByTokenID removes a single session.
func (r *sessionRepository) DeleteByTokenID(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	query := `DELETE FROM sessions WHERE user_id = $1 AND token_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByUserID clears the whole registry.
func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// DeleteByUserIDExcept clears the registry but keeps one session.
func (r *sessionRepository) DeleteByUserIDExcept(ctx context.Context, userID, keepTokenID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND token_id <> $2`

	if _, err := r.db.ExecContext(ctx, query, userID, keepTokenID); err != nil {
		return fmt.Errorf("failed to delete other sessions: %w", err)
	}
	return nil
}

// DeleteIdleSince prunes sessions idle past the cutoff.
func (r *sessionRepository) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE last_activity < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune idle sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
