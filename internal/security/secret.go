package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const MinSecretLength = 32

var (
	ErrSecretMissing     = errors.New("SECRET_KEY is required")
	ErrSecretPlaceholder = errors.New("SECRET_KEY still holds a placeholder value")
	ErrSecretTooShort    = fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretLength)
)

var placeholderSecrets = []string{
	"change_me_in_production",
	"replace_with_at_least_32_random_characters",
}

// ValidateSecret trims raw and rejects empty, placeholder and short secrets.
func ValidateSecret(raw string) (string, error) {
	secret := strings.TrimSpace(raw)
	if secret == "" {
		return "", ErrSecretMissing
	}
	for _, placeholder := range placeholderSecrets {
		if strings.EqualFold(secret, placeholder) {
			return "", ErrSecretPlaceholder
		}
	}
	if len(secret) < MinSecretLength {
		return "", ErrSecretTooShort
	}
	return secret, nil
}

// DeriveKey expands secret into a size-byte key bound to purpose. Different purposes never share
// key material.
func DeriveKey(secret []byte, purpose string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("key purpose is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid key size %d", size)
	}

	reader := hkdf.New(sha256.New, secret, []byte("symptomcy.v1"), []byte(purpose))
	key := make([]byte, size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
