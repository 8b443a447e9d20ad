package blacklist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ledger records token ids revoked before their natural expiry. Entries
// carry the revocation reason and expire with the maximum token
// lifetime, so the set purges itself.
type Ledger struct {
	redis *redis.Client
	ttl   time.Duration
}

// Entry is one ledger record.
type Entry struct {
	TokenID       uuid.UUID `json:"token_id"`
	Reason        string    `json:"reason"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}

func NewLedger(redisClient *redis.Client, maxTokenLifetime time.Duration) *Ledger {
	if maxTokenLifetime <= 0 {
		maxTokenLifetime = 30 * 24 * time.Hour
	}
	return &Ledger{
		redis: redisClient,
		ttl:   maxTokenLifetime,
	}
}

func ledgerKey(tokenID uuid.UUID) string {
	return fmt.Sprintf("ledger:token:%s", tokenID)
}

// Revoke records a token id with its reason.
func (l *Ledger) Revoke(ctx context.Context, tokenID uuid.UUID, reason string) error {
	value := fmt.Sprintf("%s|%d", reason, time.Now().Unix())
	if err := l.redis.Set(ctx, ledgerKey(tokenID), value, l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeAll records every token id in one round trip.
func (l *Ledger) RevokeAll(ctx context.Context, tokenIDs []uuid.UUID, reason string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	value := fmt.Sprintf("%s|%d", reason, time.Now().Unix())
	pipe := l.redis.Pipeline()
	for _, id := range tokenIDs {
		pipe.Set(ctx, ledgerKey(id), value, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id is in the ledger.
func (l *Ledger) IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	exists, err := l.redis.Exists(ctx, ledgerKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}
	return exists > 0, nil
}

// Lookup returns the ledger entry for a token id, or nil when absent.
func (l *Ledger) Lookup(ctx context.Context, tokenID uuid.UUID) (*Entry, error) {
	value, err := l.redis.Get(ctx, ledgerKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	entry := &Entry{TokenID: tokenID}
	reason, stamp, found := strings.Cut(value, "|")
	entry.Reason = reason
	if found {
		if unix, err := strconv.ParseInt(stamp, 10, 64); err == nil {
			entry.InvalidatedAt = time.Unix(unix, 0)
		}
	}
	return entry, nil
}
