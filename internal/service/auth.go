package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/password"
	"leafscan/api/internal/store"
)

const (
	msgLoginRequired      = "Username and password are required"
	msgRegisterRequired   = "Username, password, and role are required"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgInvalidCredentials = "Invalid credentials"
	msgUsernameTaken      = "Username already exists"
	msgLoginFailed        = "Failed to login"
	msgRegisterFailed     = "Failed to register"
)

type Auth struct {
	store  store.Store
	hasher password.Hasher
	now    func() time.Time

	// dummyHash is compared against on unknown usernames.
	dummyHash string
}

func NewAuth(st store.Store, hasher password.Hasher) *Auth {
	dummy, _ := hasher.Hash("leafscan-timing-equalizer")
	return &Auth{
		store:     st,
		hasher:    hasher,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Login verifies username/password. Unknown usernames and wrong passwords
// return the same AuthenticationError.
func (a *Auth) Login(ctx context.Context, username, pw string) (*model.Credential, error) {
	if username == "" || pw == "" {
		return nil, validationError(msgLoginRequired)
	}

	cred, err := a.store.GetCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend one comparison so the miss costs about as much as a wrong password.
			_ = a.hasher.Compare(a.dummyHash, pw)
			return nil, &Error{Kind: KindAuthentication, Message: msgInvalidCredentials}
		}
		return nil, internalError(msgLoginFailed, fmt.Errorf("lookup credential: %w", err))
	}

	if err := a.hasher.Compare(cred.PasswordHash, pw); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, &Error{Kind: KindAuthentication, Message: msgInvalidCredentials}
		}
		return nil, internalError(msgLoginFailed, fmt.Errorf("compare password: %w", err))
	}
	return cred, nil
}

// Register creates a credential. The username is checked first and the
// store's own uniqueness guarantee catches concurrent duplicates.
func (a *Auth) Register(ctx context.Context, username, pw, role string) (model.Credential, error) {
	if username == "" || pw == "" || role == "" {
		return model.Credential{}, validationError(msgRegisterRequired)
	}
	if len(pw) > password.MaxLength {
		return model.Credential{}, validationError(msgPasswordTooLong)
	}

	_, err := a.store.GetCredentialByUsername(ctx, username)
	switch {
	case err == nil:
		return model.Credential{}, &Error{Kind: KindConflict, Message: msgUsernameTaken}
	case !errors.Is(err, store.ErrNotFound):
		return model.Credential{}, internalError(msgRegisterFailed, fmt.Errorf("lookup credential: %w", err))
	}

	hash, err := a.hasher.Hash(pw)
	if errors.Is(err, password.ErrTooLong) {
		return model.Credential{}, validationError(msgPasswordTooLong)
	}
	if err != nil {
		return model.Credential{}, internalError(msgRegisterFailed, fmt.Errorf("hash password: %w", err))
	}

	now := a.now().UTC()
	created, err := a.store.CreateCredential(ctx, model.Credential{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.Credential{}, &Error{Kind: KindConflict, Message: msgUsernameTaken}
		}
		return model.Credential{}, internalError(msgRegisterFailed, fmt.Errorf("create credential: %w", err))
	}
	return created, nil
}
