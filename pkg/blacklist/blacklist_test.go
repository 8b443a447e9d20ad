package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
)

func newTestLedger(t *testing.T, ttl time.Duration) (*Ledger, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLedger(client, ttl), mr
}

func TestRevokeAndCheck(t *testing.T) {
	ledger, _ := newTestLedger(t, time.Hour)
	ctx := context.Background()
	tokenID := uuid.New()

	revoked, err := ledger.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, ledger.Revoke(ctx, tokenID, domain.RevokeReasonLogout))

	revoked, err = ledger.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestLookupCarriesReason(t *testing.T) {
	ledger, _ := newTestLedger(t, time.Hour)
	ctx := context.Background()
	tokenID := uuid.New()

	require.NoError(t, ledger.Revoke(ctx, tokenID, domain.RevokeReasonPasswordChange))

	entry, err := ledger.Lookup(ctx, tokenID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.RevokeReasonPasswordChange, entry.Reason)
	assert.WithinDuration(t, time.Now(), entry.InvalidatedAt, 5*time.Second)

	entry, err = ledger.Lookup(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRevokeAll(t *testing.T) {
	ledger, _ := newTestLedger(t, time.Hour)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, ledger.RevokeAll(ctx, ids, domain.RevokeReasonLogout))

	for _, id := range ids {
		revoked, err := ledger.IsRevoked(ctx, id)
		require.NoError(t, err)
		assert.True(t, revoked)
	}

	require.NoError(t, ledger.RevokeAll(ctx, nil, domain.RevokeReasonLogout))
}

func TestEntriesExpireWithTokenLifetime(t *testing.T) {
	ledger, mr := newTestLedger(t, time.Hour)
	ctx := context.Background()
	tokenID := uuid.New()

	require.NoError(t, ledger.Revoke(ctx, tokenID, domain.RevokeReasonLogout))

	mr.FastForward(time.Hour + time.Minute)

	revoked, err := ledger.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)
}
