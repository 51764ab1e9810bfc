package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const tokenIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const TokenIDLength = 22

var errNonPositiveLength = errors.New("length must be positive")

// NewTokenID returns a random identifier suitable for a JWT "jti" claim.
func NewTokenID() (string, error) {
	return randomFromAlphabet(TokenIDLength, tokenIDAlphabet)
}

func randomFromAlphabet(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", errNonPositiveLength
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position.Int64()]
	}
	return string(value), nil
}
