package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewOTP — 6-значный числовой код, с ведущими нулями.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
