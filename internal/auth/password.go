package auth

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Password verifies the shared game secret against a bcrypt hash. The last
// accepted plaintext is remembered so repeated logins skip bcrypt.
type Password struct {
	hash []byte

	mu       sync.Mutex
	accepted []byte
}

// NewPassword hashes a plaintext secret.
func NewPassword(plain string, cost int) (*Password, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, fmt.Errorf("hash game password: %w", err)
	}
	return &Password{hash: hash}, nil
}

// PasswordFromHash uses a precomputed bcrypt hash.
func PasswordFromHash(hash string) (*Password, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse GAME_PASSWORD_HASH: %w", err)
	}
	return &Password{hash: []byte(hash)}, nil
}

func (p *Password) Verify(candidate string) bool {
	c := []byte(candidate)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accepted != nil && subtle.ConstantTimeCompare(p.accepted, c) == 1 {
		return true
	}
	if bcrypt.CompareHashAndPassword(p.hash, c) != nil {
		return false
	}
	p.accepted = c
	return true
}
