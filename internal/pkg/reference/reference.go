package reference

import (
	"crypto/rand"
	"fmt"
)

// alphabet avoids ambiguous characters (0/O, 1/I/L).
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const tokenLength = 10

// New returns an opaque booking reference such as "HR-7K2MQ9XW4B". The token
// part carries ~49 bits of entropy.
func New(prefix string) (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return prefix + "-" + string(buf), nil
}
