// Package code generates one-time verification codes.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabets for the supported code policies.
const (
	AlphabetNumeric      = "0123456789"
	AlphabetLetters      = "abcdefghijklmnopqrstuvwxyz"
	AlphabetAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Policy describes how codes are generated: which character set and how many
// characters. The default policy is 6 numeric digits.
type Policy struct {
	Alphabet string
	Length   int
}

// DefaultPolicy is 6 numeric digits.
var DefaultPolicy = Policy{Alphabet: AlphabetNumeric, Length: 6}

// Generate produces a random code under the policy using crypto/rand.
func (p Policy) Generate() (string, error) {
	if p.Length <= 0 || len(p.Alphabet) == 0 {
		return "", fmt.Errorf("invalid code policy: alphabet %q, length %d", p.Alphabet, p.Length)
	}
	b := make([]byte, p.Length)
	max := big.NewInt(int64(len(p.Alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b[i] = p.Alphabet[idx.Int64()]
	}
	return string(b), nil
}
