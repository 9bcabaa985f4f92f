package utils

import (
	"crypto/rand"
)

const (
	DefaultShortCodeLength = 7
	// 64 symbols, so one random byte masked to 6 bits picks a symbol without bias.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

func GenerateShortCode() string {
	return GenerateShortCodeWithLength(DefaultShortCodeLength)
}

// GenerateShortCodeWithLength never fails: crypto/rand.Read does not return
// an error since Go 1.24.
func GenerateShortCodeWithLength(length int) string {
	if length <= 0 {
		length = DefaultShortCodeLength
	}

	code := make([]byte, length)
	_, _ = rand.Read(code)

	for i := range code {
		code[i] = alphabet[code[i]&63]
	}

	return string(code)
}

// IsShortCodeChar reports whether r belongs to the URL-safe code alphabet.
func IsShortCodeChar(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '-' || r == '_'
}
