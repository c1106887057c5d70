package model

import "time"

// Prediction is a disease-detection result recorded for a user.
// UserID is not checked against existing credentials.
type Prediction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ImagePath   *string   `json:"image_path"`
	DiseaseName string    `json:"disease_name"`
	Confidence  *float64  `json:"confidence"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"` // written once at creation
}
