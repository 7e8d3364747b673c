package common

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// MakeRandHexString returns size crypto-random bytes encoded as lowercase hex,
// so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var base64Replacer = strings.NewReplacer("/", "-", "+", "_")

// MakeRandBase64String returns a length-character identifier cut from the
// standard base64 encoding of length random bytes, with '/' mapped to '-'
// and '+' mapped to '_'. The result never carries padding.
func MakeRandBase64String(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.StdEncoding.EncodeToString(b)[:length]
	return base64Replacer.Replace(s), nil
}
