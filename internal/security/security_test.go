package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "empty", raw: "   ", wantErr: ErrSecretMissing},
		{name: "placeholder", raw: "change_me_in_production", wantErr: ErrSecretPlaceholder},
		{name: "placeholder any case", raw: "REPLACE_WITH_AT_LEAST_32_RANDOM_CHARACTERS", wantErr: ErrSecretPlaceholder},
		{name: "too short", raw: "short-secret", wantErr: ErrSecretTooShort},
		{name: "valid", raw: "  " + strings.Repeat("k", MinSecretLength) + "  "},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateSecret(test.raw)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("ValidateSecret(%q) expected %v, got %v", test.raw, test.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateSecret(%q) returned error: %v", test.raw, err)
			}
			if got != strings.TrimSpace(test.raw) {
				t.Fatalf("expected trimmed secret, got %q", got)
			}
		})
	}
}

func TestDeriveKeySeparatesPurposes(t *testing.T) {
	t.Parallel()

	secret := []byte(strings.Repeat("s", MinSecretLength))
	first, err := DeriveKey(secret, "jwt", 32)
	if err != nil {
		t.Fatalf("DeriveKey() unexpected error: %v", err)
	}
	again, _ := DeriveKey(secret, "jwt", 32)
	other, _ := DeriveKey(secret, "cookie", 32)

	if len(first) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(first))
	}
	if !bytes.Equal(first, again) {
		t.Fatalf("expected derivation to be deterministic")
	}
	if bytes.Equal(first, other) {
		t.Fatalf("expected different purposes to yield different keys")
	}
	if bytes.Equal(first, secret) {
		t.Fatalf("expected derived key to differ from the raw secret")
	}
}

func TestDeriveKeyRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := DeriveKey(nil, "jwt", 32); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
	if _, err := DeriveKey([]byte("secret"), " ", 32); err == nil {
		t.Fatalf("expected error for blank purpose")
	}
	if _, err := DeriveKey([]byte("secret"), "jwt", 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestNewTokenID(t *testing.T) {
	t.Parallel()

	first, err := NewTokenID()
	if err != nil {
		t.Fatalf("NewTokenID() returned error: %v", err)
	}
	second, _ := NewTokenID()
	if len(first) != TokenIDLength {
		t.Fatalf("expected length %d, got %d", TokenIDLength, len(first))
	}
	if first == second {
		t.Fatalf("expected distinct token ids, got %q twice", first)
	}
	for _, char := range first {
		if !strings.ContainsRune(tokenIDAlphabet, char) {
			t.Fatalf("token id %q has char %q outside alphabet", first, char)
		}
	}
	if _, err := randomFromAlphabet(0, tokenIDAlphabet); err == nil {
		t.Fatalf("expected error for zero length")
	}
}
