package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

func SecureRandomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// GenerateOTP returns a four digit code between OTPMin and OTPMax.
func GenerateOTP() (string, error) {
	n, err := SecureRandomInt(OTPMax - OTPMin + 1)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(OTPMin + n), nil
}

func IsValidOTPFormat(code string) bool {
	n, err := strconv.Atoi(code)
	return err == nil && len(code) == 4 && n >= OTPMin && n <= OTPMax
}
