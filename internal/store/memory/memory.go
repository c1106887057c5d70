package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	credentials map[string]model.Credential
	usernames   map[string]string // username -> credential id
	predictions map[string]model.Prediction
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		credentials: make(map[string]model.Credential),
		usernames:   make(map[string]string),
		predictions: make(map[string]model.Prediction),
	}
}

func (s *Store) CreateCredential(_ context.Context, c model.Credential) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[c.Username]; ok {
		return model.Credential{}, store.ErrConflict
	}

	c.ID = uuid.NewString()
	stamp(&c.CreatedAt, &c.UpdatedAt)
	s.credentials[c.ID] = c
	s.usernames[c.Username] = c.ID
	return c, nil
}

func (s *Store) GetCredentialByUsername(_ context.Context, username string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := s.credentials[id]
	return &c, nil
}

func (s *Store) CreatePrediction(_ context.Context, p model.Prediction) (model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	s.predictions[p.ID] = p
	return p, nil
}

func (s *Store) GetPrediction(_ context.Context, id string) (*model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.predictions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPredictionsByUser(_ context.Context, userID string) ([]model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Prediction, 0)
	for _, p := range s.predictions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Close(context.Context) error { return nil }

func stamp(created, updated *time.Time) {
	if created.IsZero() {
		*created = time.Now().UTC()
	}
	if updated.IsZero() {
		*updated = *created
	}
}
