package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	nonceSize = 12
	tagSize   = 16

	// Overhead is the fixed size delta between plaintext and sealed file:
	// the nonce prefix plus the GCM authentication tag.
	Overhead = nonceSize + tagSize
)

var ErrCiphertextTooShort = errors.New("crypto: ciphertext shorter than nonce")

// SealFile encrypts src into dst. The layout is nonce || ciphertext+tag so a
// sealed file can be opened with nothing but the key.
func SealFile(secret *Secret, src, dst string) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read plaintext: %w", err)
	}

	gcm, err := newGCM(secret)
	if err != nil {
		return err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)

	tempPath := dst + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tempPath, sealed, 0o644); err != nil {
		return fmt.Errorf("write sealed file: %w", err)
	}
	if err := os.Rename(tempPath, dst); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("publish sealed file: %w", err)
	}
	return nil
}

// OpenFile decrypts src into dst. A truncated or tampered file fails hard;
// nothing is written on failure.
func OpenFile(secret *Secret, src, dst string) error {
	plaintext, err := OpenBytes(secret, src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	if err := os.WriteFile(dst, plaintext, 0o644); err != nil {
		return fmt.Errorf("write plaintext: %w", err)
	}
	return nil
}

// OpenBytes decrypts a sealed file into memory.
func OpenBytes(secret *Secret, src string) ([]byte, error) {
	sealed, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read sealed file: %w", err)
	}
	if len(sealed) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	gcm, err := newGCM(secret)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed file: %w", err)
	}
	return plaintext, nil
}

func newGCM(secret *Secret) (cipher.AEAD, error) {
	if secret == nil || len(secret.key) == 0 {
		return nil, errors.New("crypto: secret is empty or destroyed")
	}
	block, err := aes.NewCipher(secret.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
