// Package credential stores user accounts for the login and register endpoints.
// Passwords are kept as bcrypt hashes in every backend.
package credential

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Store is implemented by every backend. Both methods are safe for concurrent use.
type Store interface {
	// Register adds a user. It reports false if the name is taken.
	Register(ctx context.Context, username, password string) (bool, error)
	// Authenticate reports whether password matches the stored one.
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// DefaultUsers are the accounts a fresh server starts with.
var DefaultUsers = map[string]string{
	"admin": "admin123",
	"test":  "test123",
}

// Seed registers users, leaving existing accounts untouched.
func Seed(ctx context.Context, s Store, users map[string]string) error {
	for name, pass := range users {
		if _, err := s.Register(ctx, name, pass); err != nil {
			return errors.Wrapf(err, "seeding user %q", name)
		}
	}
	return nil
}

type hasher struct{ cost int }

func newHasher(cost int) hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return hasher{cost: cost}
}

func (h hasher) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(b), nil
}

func (h hasher) matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
