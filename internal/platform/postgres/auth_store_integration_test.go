package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra/quizforge/internal/platform/postgres"
	"github.com/dmehra/quizforge/internal/store"
	"github.com/dmehra/quizforge/internal/testdb"
)

func TestPostgresAuthStoreLifecycle(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(tx *sql.Tx) {
		ctx := context.Background()
		authStore := postgres.NewPostgresAuthStore(tx, nil)

		const userID int64 = 424242

		allowed, err := authStore.IsAllowed(ctx, userID)
		require.NoError(t, err)
		assert.False(t, allowed, "unknown user should not be allowed")

		require.NoError(t, authStore.Allow(ctx, userID, false))

		allowed, err = authStore.IsAllowed(ctx, userID)
		require.NoError(t, err)
		assert.True(t, allowed)

		sudo, err := authStore.IsSudo(ctx, userID)
		require.NoError(t, err)
		assert.False(t, sudo)

		err = authStore.Allow(ctx, userID, false)
		assert.ErrorIs(t, err, store.ErrUserAlreadyAllowed)

		require.NoError(t, authStore.Revoke(ctx, userID))

		allowed, err = authStore.IsAllowed(ctx, userID)
		require.NoError(t, err)
		assert.False(t, allowed, "revoked user should not be allowed")

		err = authStore.Revoke(ctx, userID)
		assert.ErrorIs(t, err, store.ErrUserNotAllowed)
	})
}

func TestPostgresAuthStoreList(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(tx *sql.Tx) {
		ctx := context.Background()
		authStore := postgres.NewPostgresAuthStore(tx, nil)

		require.NoError(t, authStore.Allow(ctx, 515151, true))
		require.NoError(t, authStore.Allow(ctx, 515152, false))

		users, err := authStore.List(ctx)
		require.NoError(t, err)

		byID := make(map[int64]store.AllowedUser, len(users))
		for _, u := range users {
			byID[u.UserID] = u
		}

		require.Contains(t, byID, int64(515151))
		require.Contains(t, byID, int64(515152))
		assert.True(t, byID[515151].Sudo)
		assert.False(t, byID[515152].Sudo)
		assert.False(t, byID[515151].AddedAt.IsZero())
	})
}
