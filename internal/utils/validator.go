package utils

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
)

const (
	MaxURLLength       = 2048
	MaxShortCodeLength = 64

	// MaxValidityMinutes keeps expiry arithmetic far from time.Duration overflow.
	MaxValidityMinutes = 10 * 365 * 24 * 60
)

func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError("url", "URL cannot be empty")
	}

	if len(rawURL) > MaxURLLength {
		return apperrors.NewValidationError("url", fmt.Sprintf("URL is too long (max %d characters)", MaxURLLength))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("url", fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.NewValidationError("url", "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("url", "URL must contain a valid host")
	}

	return nil
}

// reservedShortCodes are top-level route segments; a link under one of them
// could never be reached by a redirect.
var reservedShortCodes = map[string]struct{}{
	"health":    {},
	"info":      {},
	"shorturls": {},
}

// ValidateShortCode checks a caller-supplied short code. Codes become a path
// segment, so only the generator's URL-safe alphabet is accepted.
func ValidateShortCode(code string) error {
	if code == "" {
		return apperrors.NewValidationError("shortcode", "short code cannot be empty")
	}

	if len(code) > MaxShortCodeLength {
		return apperrors.NewValidationError("shortcode", fmt.Sprintf("short code is too long (max %d characters)", MaxShortCodeLength))
	}

	for _, r := range code {
		if !IsShortCodeChar(r) {
			return apperrors.NewValidationError("shortcode", "short code may contain only letters, digits, '-' and '_'")
		}
	}

	if _, ok := reservedShortCodes[code]; ok {
		return apperrors.NewValidationError("shortcode", fmt.Sprintf("short code '%s' is reserved", code))
	}

	return nil
}

func ValidateValidity(minutes int) error {
	if minutes <= 0 {
		return apperrors.NewValidationError("validity", "validity must be a positive number of minutes")
	}
	if minutes > MaxValidityMinutes {
		return apperrors.NewValidationError("validity", fmt.Sprintf("validity is too long (max %d minutes)", MaxValidityMinutes))
	}
	return nil
}

func SanitizeInput(input string) string {
	// Drop control characters except whitespace, then trim.
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
