package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// GenerateVerificationCode returns a random six-digit one-time code.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", errors.Wrap(err, "unable to generate a verification code")
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
