package store

import (
	"context"
	"errors"

	"leafscan/api/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// Collection names shared by every backend.
const (
	CredentialsCollection = "login"
	PredictionsCollection = "predictions"
)

type Store interface {
	// CreateCredential persists c and returns it with ID and timestamps set.
	// Returns ErrConflict when the username is already taken.
	CreateCredential(ctx context.Context, c model.Credential) (model.Credential, error)
	GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error)

	CreatePrediction(ctx context.Context, p model.Prediction) (model.Prediction, error)
	GetPrediction(ctx context.Context, id string) (*model.Prediction, error)
	// ListPredictionsByUser returns records ordered by created_at, newest first.
	ListPredictionsByUser(ctx context.Context, userID string) ([]model.Prediction, error)

	Close(ctx context.Context) error
}
