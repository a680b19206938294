package repository

import (
	"context"
	"testing"

	"agrimono/pkg/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *SettingsRepository {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSettingsRepository(db, zap.NewNop())
}

func TestSettingsRepository_MissingKeyReadsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	value, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSettingsRepository_SetOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "v1"))
	require.NoError(t, repo.Set(ctx, "k", "v2"))

	value, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestSettingsRepository_ActiveDataset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.ActiveDataset(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.SetActiveDataset(ctx, "1841187586"))
	id, err = repo.ActiveDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1841187586", id)
}

func TestSettingsRepository_CredentialsIsolatedPerProvider(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetCredential(ctx, "gemini", "g-token"))
	require.NoError(t, repo.SetCredential(ctx, "openrouter", "or-token"))

	got, err := repo.Credential(ctx, "gemini")
	require.NoError(t, err)
	assert.Equal(t, "g-token", got)

	got, err = repo.Credential(ctx, "openrouter")
	require.NoError(t, err)
	assert.Equal(t, "or-token", got)

	// Credential keys never collide with plain settings keys.
	plain, err := repo.Get(ctx, "gemini")
	require.NoError(t, err)
	assert.Empty(t, plain)
}
