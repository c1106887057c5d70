package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCredential(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c, err := s.CreateCredential(ctx, model.Credential{
		Username:     "alice",
		PasswordHash: "hash",
		Role:         "farmer",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "alice", c.Username)
	assert.NotZero(t, c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	// Duplicate username
	_, err = s.CreateCredential(ctx, model.Credential{Username: "alice", PasswordHash: "other", Role: "admin"})
	assert.ErrorIs(t, err, store.ErrConflict)

	// Username match is exact
	_, err = s.CreateCredential(ctx, model.Credential{Username: "Alice", PasswordHash: "x", Role: "admin"})
	assert.NoError(t, err)
}

func TestCreateCredential_ConcurrentSameUsername(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateCredential(ctx, model.Credential{Username: "bob", PasswordHash: "h", Role: "farmer"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, store.ErrConflict)
		}
	}
	assert.Equal(t, 1, created)
}

func TestGetCredentialByUsername(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.GetCredentialByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	created, err := s.CreateCredential(ctx, model.Credential{Username: "carol", PasswordHash: "h", Role: "admin"})
	require.NoError(t, err)

	got, err := s.GetCredentialByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, created, *got)
}

func TestPredictions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	confidence := 0.93
	for i, name := range []string{"rust", "blight", "mildew"} {
		_, err := s.CreatePrediction(ctx, model.Prediction{
			UserID:      "u1",
			DiseaseName: name,
			Confidence:  &confidence,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := s.CreatePrediction(ctx, model.Prediction{UserID: "u2", DiseaseName: "scab"})
	require.NoError(t, err)

	list, err := s.ListPredictionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "mildew", list[0].DiseaseName)
	assert.Equal(t, "blight", list[1].DiseaseName)
	assert.Equal(t, "rust", list[2].DiseaseName)

	got, err := s.GetPrediction(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0], *got)
	assert.Nil(t, got.ImagePath)
	assert.Nil(t, got.Description)

	_, err = s.GetPrediction(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	empty, err := s.ListPredictionsByUser(ctx, "u3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
