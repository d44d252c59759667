package subscription

import (
	"crypto/rand"
	"fmt"
)

// TokenLength is the number of characters in a confirmation token.
const TokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenSource produces confirmation tokens.
type TokenSource interface {
	NewToken() (string, error)
}

// RandomTokens draws alphanumeric tokens from crypto/rand.
type RandomTokens struct{}

// NewToken returns TokenLength uniformly distributed alphanumeric characters.
func (RandomTokens) NewToken() (string, error) {
	// largest multiple of len(tokenAlphabet) below 256, to avoid modulo bias
	const limit = 256 - 256%len(tokenAlphabet)

	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}
