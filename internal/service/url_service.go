package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
	"github.com/Kosench/go-url-shortener/internal/repository"
	"github.com/Kosench/go-url-shortener/internal/utils"
)

const (
	DefaultMaxRetries      = 3
	DefaultValidityMinutes = 30
)

type URLService struct {
	urlRepo         repository.URLRepository
	generate        func() string
	now             func() time.Time
	maxRetries      int
	defaultValidity int
}

type Option func(*URLService)

// WithMaxRetries bounds the number of generated codes tried per create.
func WithMaxRetries(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithDefaultValidity sets the lifetime in minutes used when a request has none.
func WithDefaultValidity(minutes int) Option {
	return func(s *URLService) {
		if minutes > 0 {
			s.defaultValidity = minutes
		}
	}
}

func WithGenerator(generate func() string) Option {
	return func(s *URLService) {
		if generate != nil {
			s.generate = generate
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *URLService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewURLService(urlRepo repository.URLRepository, opts ...Option) *URLService {
	s := &URLService{
		urlRepo:         urlRepo,
		generate:        utils.GenerateShortCode,
		now:             time.Now,
		maxRetries:      DefaultMaxRetries,
		defaultValidity: DefaultValidityMinutes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *URLService) CreateShortURL(ctx context.Context, req *model.CreateURLRequest) (*model.CreateURLResult, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("url", "URL is required")
	}

	originalURL := utils.SanitizeInput(req.URL)
	if err := utils.ValidateURL(originalURL); err != nil {
		return nil, err
	}

	validity := s.defaultValidity
	if req.Validity != nil {
		if err := utils.ValidateValidity(*req.Validity); err != nil {
			return nil, err
		}
		validity = *req.Validity
	}

	if req.ShortCode != "" {
		return s.createWithCustomCode(ctx, originalURL, req.ShortCode, validity)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		record := s.newRecord(originalURL, s.generate(), validity)

		err := s.urlRepo.Insert(ctx, record)
		if err == nil {
			return resultFor(record), nil
		}

		if !errors.Is(err, apperrors.ErrShortCodeExists) {
			return nil, internalError("failed to create URL", err)
		}
	}

	return nil, apperrors.NewBusinessError(
		apperrors.CodeShortCodeGeneration,
		fmt.Sprintf("failed to generate unique short code after %d attempts", s.maxRetries),
		nil,
	)
}

func (s *URLService) createWithCustomCode(ctx context.Context, originalURL, shortCode string, validity int) (*model.CreateURLResult, error) {
	if err := utils.ValidateShortCode(shortCode); err != nil {
		return nil, err
	}

	// Fast path only. Insert is what actually guarantees uniqueness.
	_, err := s.urlRepo.FindByCode(ctx, shortCode)
	switch {
	case err == nil:
		return nil, fmt.Errorf("short code '%s': %w", shortCode, apperrors.ErrCodeTaken)
	case !errors.Is(err, apperrors.ErrURLNotFound):
		return nil, internalError("failed to check short code", err)
	}

	record := s.newRecord(originalURL, shortCode, validity)
	if err := s.urlRepo.Insert(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrShortCodeExists) {
			return nil, fmt.Errorf("short code '%s': %w", shortCode, apperrors.ErrCodeTaken)
		}
		return nil, internalError("failed to create URL", err)
	}

	return resultFor(record), nil
}

// Redirect resolves a short code and records the visit. The original URL is
// returned only once the click is stored.
func (s *URLService) Redirect(ctx context.Context, req model.RedirectRequest) (string, error) {
	record, err := s.lookup(ctx, req.ShortCode)
	if err != nil {
		return "", err
	}

	now := s.now()
	if record.IsExpired(now) {
		return "", fmt.Errorf("short code '%s': %w", req.ShortCode, apperrors.ErrURLExpired)
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = model.DefaultReferrer
	}

	event := model.ClickEvent{
		Timestamp: now,
		Referrer:  referrer,
		IPAddress: req.ClientIP,
	}

	// A client that hangs up mid-request must not leave the append half done.
	if _, err := s.urlRepo.AppendClick(context.WithoutCancel(ctx), req.ShortCode, event); err != nil {
		if errors.Is(err, apperrors.ErrURLNotFound) {
			return "", err
		}
		return "", apperrors.NewBusinessError(apperrors.CodeClickRecording, "failed to record click", err)
	}

	return record.OriginalURL, nil
}

// GetStats reports a record and its clicks. Expired records are still served.
func (s *URLService) GetStats(ctx context.Context, shortCode string) (*model.StatsResponse, error) {
	record, err := s.lookup(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	clicks, err := s.urlRepo.ListClicks(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrURLNotFound) {
			return nil, err
		}
		return nil, internalError("failed to list clicks", err)
	}

	if clicks == nil {
		clicks = []model.ClickEvent{}
	}

	return &model.StatsResponse{
		OriginalURL:  record.OriginalURL,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    record.ExpiresAt,
		TotalClicks:  len(clicks),
		ClickDetails: clicks,
	}, nil
}

func (s *URLService) lookup(ctx context.Context, shortCode string) (*model.URLRecord, error) {
	if shortCode == "" {
		return nil, apperrors.NewValidationError("shortcode", "short code cannot be empty")
	}

	record, err := s.urlRepo.FindByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrURLNotFound) {
			return nil, err
		}
		return nil, internalError("failed to get URL", err)
	}

	return record, nil
}

func (s *URLService) newRecord(originalURL, shortCode string, validity int) *model.URLRecord {
	createdAt := s.now()
	return &model.URLRecord{
		OriginalURL: originalURL,
		ShortCode:   shortCode,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(time.Duration(validity) * time.Minute),
	}
}

func resultFor(record *model.URLRecord) *model.CreateURLResult {
	return &model.CreateURLResult{
		ShortCode: record.ShortCode,
		ExpiresAt: record.ExpiresAt,
	}
}

// internalError keeps storage errors that are already classified and wraps
// the rest, so callers never see a bare driver error.
func internalError(message string, err error) error {
	if apperrors.IsBusinessError(err) {
		return err
	}
	return apperrors.NewBusinessError(apperrors.CodeDatabaseError, message, err)
}
