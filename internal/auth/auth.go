// Package auth gates moderator operations behind a shared secret.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/sha3"
)

const HeaderAdminSecret = "X-Admin-Secret"

var ErrUnauthorized = errors.New("unauthorized")

type AdminGate struct {
	enabled bool
	digest  [32]byte
}

// NewAdminGate returns a gate accepting only secret. An empty secret yields a
// gate that refuses everything.
func NewAdminGate(secret string) *AdminGate {
	if secret == "" {
		return &AdminGate{}
	}
	return &AdminGate{enabled: true, digest: sha3.Sum256([]byte(secret))}
}

// Authorize compares digests so the comparison time does not depend on the
// presented secret's length or content.
func (g *AdminGate) Authorize(presented string) error {
	if g == nil || !g.enabled || presented == "" {
		return ErrUnauthorized
	}
	got := sha3.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(got[:], g.digest[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (g *AdminGate) Enabled() bool {
	return g != nil && g.enabled
}
