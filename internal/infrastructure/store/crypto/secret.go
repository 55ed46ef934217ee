// Package crypto holds the key derivation and file sealing used by the
// encrypted object store.
package crypto

import (
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for deriving the store key from the configured
// password and salt.
const (
	argonIterations  = 3
	argonMemoryKiB   = 64 * 1024
	argonParallelism = 1
	keyLength        = 32
)

// Secret is an opaque handle around derived key material. Callers never see
// the raw bytes; Destroy wipes them.
type Secret struct {
	key []byte
}

// DeriveSecret stretches the password into a 256-bit key with Argon2id.
func DeriveSecret(password, salt []byte) *Secret {
	key := argon2.IDKey(password, salt, argonIterations, argonMemoryKiB, argonParallelism, keyLength)
	return &Secret{key: key}
}

// Destroy zeroes the key material. The secret must not be used afterwards.
func (s *Secret) Destroy() {
	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
}
