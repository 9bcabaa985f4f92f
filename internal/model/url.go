package model

import "time"

const DefaultReferrer = "Direct"

// ClickEvent is one recorded visit of a short link. Events are append-only.
type ClickEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer"`
	IPAddress string    `json:"ipAddress"`
}

// URLRecord maps a short code to its target. Every field is immutable once
// stored; the click log lives behind the repository.
type URLRecord struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether now is past the validity window.
func (r *URLRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

type CreateURLRequest struct {
	URL       string `json:"url" binding:"required"`
	Validity  *int   `json:"validity,omitempty"`
	ShortCode string `json:"shortcode,omitempty"`
}

// CreateURLResult is what the service hands back; the handler turns it into
// a CreateURLResponse with a full short link.
type CreateURLResult struct {
	ShortCode string
	ExpiresAt time.Time
}

type CreateURLResponse struct {
	ShortLink string    `json:"shortLink"`
	Expiry    time.Time `json:"expiry"`
}

type RedirectRequest struct {
	ShortCode string
	ClientIP  string
	Referrer  string
}

type StatsResponse struct {
	OriginalURL  string       `json:"originalUrl"`
	CreatedAt    time.Time    `json:"createdAt"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	TotalClicks  int          `json:"totalClicks"`
	ClickDetails []ClickEvent `json:"clickDetails"`
}
