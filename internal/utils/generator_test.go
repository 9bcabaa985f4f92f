package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortCode(t *testing.T) {
	code := GenerateShortCode()

	assert.Len(t, code, DefaultShortCodeLength)
	for _, char := range code {
		assert.Truef(t, strings.ContainsRune(alphabet, char), "GenerateShortCode() contains invalid character: %c", char)
	}
}

func TestGenerateShortCodeWithLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"length 1", 1, 1},
		{"length 4", 4, 4},
		{"length 8", 8, 8},
		{"length 12", 12, 12},
		{"zero falls back to default", 0, DefaultShortCodeLength},
		{"negative falls back to default", -3, DefaultShortCodeLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := GenerateShortCodeWithLength(tt.length)

			assert.Len(t, code, tt.want)
			for _, char := range code {
				assert.Truef(t, IsShortCodeChar(char), "GenerateShortCodeWithLength(%d) contains invalid character: %c", tt.length, char)
			}
		})
	}
}

func TestGenerateShortCodeUniqueness(t *testing.T) {
	generated := make(map[string]bool)
	iterations := 1000

	for i := 0; i < iterations; i++ {
		code := GenerateShortCode()
		assert.Falsef(t, generated[code], "GenerateShortCode() generated duplicate: %s", code)
		generated[code] = true
	}
}

func TestAlphabetIsURLSafe(t *testing.T) {
	assert.Len(t, alphabet, 64)
	for _, char := range alphabet {
		assert.Truef(t, IsShortCodeChar(char), "alphabet contains %c", char)
	}
	assert.False(t, IsShortCodeChar('/'))
	assert.False(t, IsShortCodeChar('+'))
	assert.False(t, IsShortCodeChar('.'))
}
