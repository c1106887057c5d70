package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the fixed bcrypt work factor for stored credentials.
const Cost = 10

// MaxLength is the longest password, in bytes, bcrypt will hash.
const MaxLength = 72

var (
	ErrMismatch = errors.New("password mismatch")
	ErrTooLong  = errors.New("password too long")
)

type Hasher interface {
	Hash(plain string) (string, error)
	// Compare returns ErrMismatch when plain does not match hash.
	Compare(hash, plain string) error
}

type Bcrypt struct {
	cost int
}

func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: Cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *Bcrypt) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	// bcrypt ignores bytes past MaxLength, and Hash never accepts such input.
	if err == nil && len(plain) > MaxLength {
		return ErrMismatch
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
