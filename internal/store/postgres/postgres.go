package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"
	"leafscan/api/internal/store/postgres/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewStore(databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Ping to fail fast.
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) CreateCredential(ctx context.Context, c model.Credential) (model.Credential, error) {
	created, updated := timestamps(c.CreatedAt, c.UpdatedAt)

	var out model.Credential
	err := s.pool.QueryRow(ctx, `
		insert into public.login (username, password, role, created_at, updated_at)
		values ($1, $2, $3, $4, $5)
		returning id::text, username, password, role, created_at, updated_at
	`, c.Username, c.PasswordHash, c.Role, created, updated).Scan(
		&out.ID,
		&out.Username,
		&out.PasswordHash,
		&out.Role,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return model.Credential{}, mapPgErr(err)
	}
	out.CreatedAt, out.UpdatedAt = out.CreatedAt.UTC(), out.UpdatedAt.UTC()
	return out, nil
}

func (s *Store) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var c model.Credential
	err := s.pool.QueryRow(ctx, `
		select id::text, username, password, role, created_at, updated_at
		from public.login
		where username = $1
		limit 1
	`, username).Scan(
		&c.ID,
		&c.Username,
		&c.PasswordHash,
		&c.Role,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgErr(err)
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}

func (s *Store) CreatePrediction(ctx context.Context, p model.Prediction) (model.Prediction, error) {
	created, updated := timestamps(p.CreatedAt, p.UpdatedAt)

	var out model.Prediction
	err := s.pool.QueryRow(ctx, `
		insert into public.predictions (user_id, image_path, disease_name, confidence, description, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+predictionColumns+`
	`, p.UserID, p.ImagePath, p.DiseaseName, p.Confidence, p.Description, created, updated).Scan(predictionDest(&out)...)
	if err != nil {
		return model.Prediction{}, mapPgErr(err)
	}
	out.CreatedAt, out.UpdatedAt = out.CreatedAt.UTC(), out.UpdatedAt.UTC()
	return out, nil
}

func (s *Store) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var p model.Prediction
	err = s.pool.QueryRow(ctx, `
		select `+predictionColumns+`
		from public.predictions
		where id = $1
	`, pid.String()).Scan(predictionDest(&p)...)
	if err != nil {
		return nil, mapPgErr(err)
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) ListPredictionsByUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+predictionColumns+`
		from public.predictions
		where user_id = $1
		order by created_at desc
	`, userID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := make([]model.Prediction, 0)
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(predictionDest(&p)...); err != nil {
			return nil, mapPgErr(err)
		}
		p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}
	return out, nil
}

const predictionColumns = `id::text, user_id, image_path, disease_name, confidence, description, created_at, updated_at`

func predictionDest(p *model.Prediction) []any {
	return []any{
		&p.ID,
		&p.UserID,
		&p.ImagePath,
		&p.DiseaseName,
		&p.Confidence,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func timestamps(created, updated time.Time) (time.Time, time.Time) {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}
	return created, updated
}

func mapPgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		default:
			return fmt.Errorf("db_error %s: %s", pgErr.Code, pgErr.Message)
		}
	}
	return err
}
