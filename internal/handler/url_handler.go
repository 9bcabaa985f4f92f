package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
)

// URLService is the part of service.URLService the handlers depend on.
type URLService interface {
	CreateShortURL(ctx context.Context, req *model.CreateURLRequest) (*model.CreateURLResult, error)
	Redirect(ctx context.Context, req model.RedirectRequest) (string, error)
	GetStats(ctx context.Context, shortCode string) (*model.StatsResponse, error)
}

type URLHandler struct {
	urlService URLService
	baseURL    string
	logger     *zap.Logger
}

// NewURLHandler creates the handler. An empty baseURL makes short links use
// the scheme and host of the incoming request.
func NewURLHandler(urlService URLService, baseURL string, logger *zap.Logger) *URLHandler {
	jsonFieldNames.Do(useJSONFieldNames)

	if logger == nil {
		logger = zap.NewNop()
	}

	return &URLHandler{
		urlService: urlService,
		baseURL:    baseURL,
		logger:     logger.Named("url_handler"),
	}
}

func (h *URLHandler) CreateURL(c *gin.Context) {
	var req model.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			h.handleError(c, bindingError(fieldErrs[0]))
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON body",
		})
		return
	}

	result, err := h.urlService.CreateShortURL(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.CreateURLResponse{
		ShortLink: h.shortLink(c, result.ShortCode),
		Expiry:    result.ExpiresAt.UTC(),
	})
}

func (h *URLHandler) GetStats(c *gin.Context) {
	stats, err := h.urlService.GetStats(c.Request.Context(), c.Param("shortcode"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *URLHandler) RedirectURL(c *gin.Context) {
	originalURL, err := h.urlService.Redirect(c.Request.Context(), model.RedirectRequest{
		ShortCode: c.Param("shortcode"),
		ClientIP:  c.ClientIP(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, originalURL)
}

var jsonFieldNames sync.Once

// useJSONFieldNames makes gin's validator report fields by their JSON name.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindingError reports a failed binding rule under the field's JSON name.
func bindingError(fe validator.FieldError) error {
	field := fe.Field()
	if fe.Tag() == "required" {
		return apperrors.NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return apperrors.NewValidationError(field, fmt.Sprintf("%s failed the '%s' rule", field, fe.Tag()))
}

func (h *URLHandler) shortLink(c *gin.Context, shortCode string) string {
	if h.baseURL != "" {
		return h.baseURL + "/" + shortCode
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	} else if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	return fmt.Sprintf("%s://%s/%s", scheme, c.Request.Host, shortCode)
}

func (h *URLHandler) handleError(c *gin.Context, err error) {
	if validationErr := apperrors.GetValidationError(err); validationErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrCodeTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "short_code_taken",
			"message": "Short code is already in use",
		})
		return

	case errors.Is(err, apperrors.ErrURLNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "url_not_found",
			"message": "URL not found",
		})
		return

	case errors.Is(err, apperrors.ErrURLExpired):
		c.JSON(http.StatusGone, gin.H{
			"error":   "url_expired",
			"message": "Short link has expired",
		})
		return
	}

	h.logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", RequestIDFrom(c)),
		zap.Error(err),
	)

	if businessErr := apperrors.GetBusinessError(err); businessErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "business_error",
			"message": businessErr.Message,
			"code":    businessErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}
