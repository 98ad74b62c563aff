package repository

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codePrefix   = "BK-"
	codeLength   = 9
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewBookingCode returns a random human booking code such as BK-7Q2M0XK4D.
func NewBookingCode() (string, error) {
	buf := make([]byte, codeLength)
	base := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return codePrefix + string(buf), nil
}
