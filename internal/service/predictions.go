package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"
)

const (
	msgPredictionRequired = "user_id and disease_name are required"
	msgPredictionNotFound = "Prediction not found"
	msgListFailed         = "Failed to fetch predictions"
	msgCreateFailed       = "Failed to create prediction"
	msgGetFailed          = "Failed to fetch prediction"
)

// NewPrediction is the input for Predictions.Create. Nil optional fields are
// stored as null.
type NewPrediction struct {
	UserID      string
	DiseaseName string
	ImagePath   *string
	Confidence  *float64
	Description *string
}

type Predictions struct {
	store store.Store
	now   func() time.Time
}

func NewPredictions(st store.Store) *Predictions {
	return &Predictions{store: st, now: time.Now}
}

func (p *Predictions) ListByUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	out, err := p.store.ListPredictionsByUser(ctx, userID)
	if err != nil {
		return nil, internalError(msgListFailed, fmt.Errorf("list predictions: %w", err))
	}
	if out == nil {
		out = []model.Prediction{}
	}
	return out, nil
}

func (p *Predictions) Create(ctx context.Context, in NewPrediction) (model.Prediction, error) {
	if in.UserID == "" || in.DiseaseName == "" {
		return model.Prediction{}, validationError(msgPredictionRequired)
	}

	now := p.now().UTC()
	created, err := p.store.CreatePrediction(ctx, model.Prediction{
		UserID:      in.UserID,
		ImagePath:   in.ImagePath,
		DiseaseName: in.DiseaseName,
		Confidence:  in.Confidence,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Prediction{}, internalError(msgCreateFailed, fmt.Errorf("create prediction: %w", err))
	}
	return created, nil
}

func (p *Predictions) Get(ctx context.Context, id string) (*model.Prediction, error) {
	out, err := p.store.GetPrediction(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: msgPredictionNotFound}
		}
		return nil, internalError(msgGetFailed, fmt.Errorf("get prediction: %w", err))
	}
	return out, nil
}
