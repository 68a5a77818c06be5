package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/efren319/GovFunds/config"
	"github.com/efren319/GovFunds/internal/apperrors"
)

// dummyHash keeps the unknown-user path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("govfunds-dummy"), bcrypt.DefaultCost)

// Credentials is the configured username → bcrypt hash table.
type Credentials struct {
	hashes map[string][]byte
}

// NewCredentials parses ADMIN_CREDENTIALS.
func NewCredentials(raw string) (*Credentials, error) {
	parsed, err := config.ParseCredentials(raw)
	if err != nil {
		return nil, err
	}

	hashes := make(map[string][]byte, len(parsed))
	for user, hash := range parsed {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("ADMIN_CREDENTIALS: user %q: not a bcrypt hash", user)
		}
		hashes[user] = []byte(hash)
	}
	return &Credentials{hashes: hashes}, nil
}

// Len returns the number of configured users.
func (c *Credentials) Len() int { return len(c.hashes) }

// Check verifies a username/password pair, returning ErrUnauthorized on mismatch.
func (c *Credentials) Check(_ context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperrors.Required("username")
	}
	if password == "" {
		return apperrors.Required("password")
	}

	hash, ok := c.lookup(username)
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return apperrors.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (c *Credentials) lookup(username string) ([]byte, bool) {
	var found []byte
	for user, hash := range c.hashes {
		if subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1 {
			found = hash
		}
	}
	return found, found != nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_CREDENTIALS.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", apperrors.Required("password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
