package random

import (
	"crypto/rand"
	"math/big"
)

var alphanumericRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// String creates a new random alphanumeric string with the given length
func String(length int) (string, error) {
	max := big.NewInt(int64(len(alphanumericRunes)))
	b := make([]rune, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumericRunes[n.Int64()]
	}
	return string(b), nil
}
