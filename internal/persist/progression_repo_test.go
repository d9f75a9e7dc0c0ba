package persist

import (
	"context"
	"testing"

	"github.com/rmcgame/progression/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

// setupPostgres starts a throwaway postgres, applies migrations and returns
// the repo. Skipped in -short mode or without a container runtime.
func setupPostgres(t *testing.T) *ProgressionRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("progression"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, config.DatabaseConfig{
		Driver:       "postgres",
		DSN:          dsn,
		MaxOpenConns: 4,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.(*ProgressionRepo)
}

func TestProgressionRepo(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	t.Run("absent character", func(t *testing.T) {
		row, err := repo.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sampleRow("c1")))
		got, err := repo.Load(ctx, "c1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(6200), got.XP)
		assert.Equal(t, []string{"AirDash", "DoubleJump"}, got.UnlockedSkills)
	})

	t.Run("upsert", func(t *testing.T) {
		row := sampleRow("c1")
		row.Rank = 2
		require.NoError(t, repo.Save(ctx, row))
		got, err := repo.Load(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Rank)
	})

	t.Run("tampering detected", func(t *testing.T) {
		_, err := repo.db.Pool.Exec(ctx, `UPDATE character_progression SET xp = 1 WHERE character_id = 'c1'`)
		require.NoError(t, err)
		_, err = repo.Load(ctx, "c1")
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("negative counters", func(t *testing.T) {
		assertStoresNegativeCounters(t, repo)
	})

	t.Run("ledger", func(t *testing.T) {
		require.NoError(t, repo.AppendLedger(ctx, []LedgerEntry{
			{CharacterID: "c2", Currency: "style_orbs", Delta: 100, Balance: 100},
			{CharacterID: "c2", Currency: "style_orbs", Delta: -30, Balance: 70},
		}))
		require.NoError(t, repo.Save(ctx, sampleRow("c2")))

		entries, err := repo.LedgerEntries(ctx, "c2")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(70), entries[1].Balance)

		var pending int
		require.NoError(t, repo.db.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM currency_ledger WHERE character_id = 'c2' AND NOT processed`,
		).Scan(&pending))
		assert.Zero(t, pending)
	})
}
