package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new PostgreSQL store for testing.
// It skips tests if DATABASE_URL is not set and resets the schema before migrating.
func setupTestDB(t *testing.T) *Store {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		drop table if exists public.predictions;
		drop table if exists public.login;
		drop table if exists public.goose_db_version;
	`)
	require.NoError(t, err)
	pool.Close()

	s, err := NewStore(databaseURL)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestCredentials(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	c, err := s.CreateCredential(ctx, model.Credential{Username: "alice", PasswordHash: "hash", Role: "farmer"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "hash", c.PasswordHash)
	assert.NotZero(t, c.CreatedAt)

	_, err = s.CreateCredential(ctx, model.Credential{Username: "alice", PasswordHash: "x", Role: "admin"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetCredentialByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "farmer", got.Role)

	_, err = s.GetCredentialByUsername(ctx, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPredictions(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	imagePath := "uploads/leaf.jpg"
	for i, name := range []string{"rust", "blight", "mildew"} {
		_, err := s.CreatePrediction(ctx, model.Prediction{
			UserID:      "u1",
			DiseaseName: name,
			ImagePath:   &imagePath,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	list, err := s.ListPredictionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "mildew", list[0].DiseaseName)
	assert.Equal(t, "rust", list[2].DiseaseName)
	require.NotNil(t, list[0].ImagePath)
	assert.Equal(t, imagePath, *list[0].ImagePath)
	assert.Nil(t, list[0].Confidence)

	got, err := s.GetPrediction(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "blight", got.DiseaseName)

	_, err = s.GetPrediction(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetPrediction(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)

	empty, err := s.ListPredictionsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetPrediction_MalformedIDSkipsQuery(t *testing.T) {
	var s Store // no pool: a query would panic

	for _, id := range []string{"not-a-uuid", "", "123"} {
		_, err := s.GetPrediction(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
	}
}
