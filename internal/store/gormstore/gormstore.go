// Package gormstore keeps credentials and predictions in a relational
// database through gorm. SQLite and MySQL are supported.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

type credentialRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Username  string `gorm:"size:191;not null;uniqueIndex:uq_login_username"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (credentialRow) TableName() string { return store.CredentialsCollection }

type predictionRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"size:191;not null;index:idx_predictions_user_created,priority:1"`
	ImagePath   *string
	DiseaseName string `gorm:"not null"`
	Confidence  *float64
	Description *string
	CreatedAt   time.Time `gorm:"index:idx_predictions_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time
}

func (predictionRow) TableName() string { return store.PredictionsCollection }

// Open connects with the named driver. MySQL DSNs need parseTime=true.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the tables from the row definitions.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&credentialRow{}, &predictionRow{})
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateCredential(ctx context.Context, c model.Credential) (model.Credential, error) {
	row := credentialRow{
		ID:        uuid.NewString(),
		Username:  c.Username,
		Password:  c.PasswordHash,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	row.CreatedAt, row.UpdatedAt = timestamps(row.CreatedAt, row.UpdatedAt)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Credential{}, mapGormErr(err)
	}
	return row.toModel(), nil
}

func (s *Store) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var row credentialRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error; err != nil {
		return nil, mapGormErr(err)
	}
	c := row.toModel()
	return &c, nil
}

func (s *Store) CreatePrediction(ctx context.Context, p model.Prediction) (model.Prediction, error) {
	row := predictionRow{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		ImagePath:   p.ImagePath,
		DiseaseName: p.DiseaseName,
		Confidence:  p.Confidence,
		Description: p.Description,
	}
	row.CreatedAt, row.UpdatedAt = timestamps(p.CreatedAt, p.UpdatedAt)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Prediction{}, mapGormErr(err)
	}
	return row.toModel(), nil
}

func (s *Store) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	var row predictionRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, mapGormErr(err)
	}
	p := row.toModel()
	return &p, nil
}

func (s *Store) ListPredictionsByUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	var rows []predictionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, mapGormErr(err)
	}

	out := make([]model.Prediction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (r credentialRow) toModel() model.Credential {
	return model.Credential{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (r predictionRow) toModel() model.Prediction {
	return model.Prediction{
		ID:          r.ID,
		UserID:      r.UserID,
		ImagePath:   r.ImagePath,
		DiseaseName: r.DiseaseName,
		Confidence:  r.Confidence,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// MySQL datetime(3) keeps milliseconds; truncate so every driver round-trips the same value.
func timestamps(created, updated time.Time) (time.Time, time.Time) {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	created = created.UTC().Truncate(time.Millisecond)
	if updated.IsZero() {
		updated = created
	}
	return created, updated.UTC().Truncate(time.Millisecond)
}

func mapGormErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	default:
		return err
	}
}
