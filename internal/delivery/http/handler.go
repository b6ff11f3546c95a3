package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/internal/domain"
	"github.com/baglabel/backend/internal/infrastructure/cache"
	"github.com/baglabel/backend/internal/version"
)

// ProductService is the use case the product endpoints delegate to
type ProductService interface {
	ExtractProduct(ctx context.Context, request *domain.ExtractRequest) (*domain.ExtractResult, error)
	BuildManualRecord(request *domain.ManualLabelRequest) (*domain.ProductRecord, error)
}

// DryingTable answers drying lookups
type DryingTable interface {
	Resolve(label string) (string, domain.DryingParameters, bool)
	Entries() []domain.DryingEntry
	WarningFor(filamentType string) *domain.FilamentWarning
}

// CacheStats reports cache occupancy
type CacheStats interface {
	Stats() cache.Stats
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products ProductService
	drying   DryingTable
	cache    CacheStats
	logger   logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(products ProductService, drying DryingTable, cacheStats CacheStats, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		products: products,
		drying:   drying,
		cache:    cacheStats,
		logger:   logger.WithField("component", "http"),
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error              string `json:"error"`
	Code               string `json:"code"`
	Hint               string `json:"hint,omitempty"`
	Title              string `json:"title,omitempty"`
	UpstreamStatus     int    `json:"upstreamStatus,omitempty"`
	UpstreamStatusText string `json:"upstreamStatusText,omitempty"`
}

// DryingResponse is a resolved drying lookup
type DryingResponse struct {
	FilamentType string                  `json:"filamentType"`
	Temperature  string                  `json:"temperature"`
	Duration     string                  `json:"duration"`
	Warning      *domain.FilamentWarning `json:"warning,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": version.Service,
		"version": version.Version,
	})
}

// ExtractProduct handles URL-based extraction requests
func (h *Handler) ExtractProduct(c *gin.Context) {
	if h.products == nil {
		h.respondError(c, errors.New("product service not configured"))
		return
	}

	var request domain.ExtractRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.respondError(c, domain.NewInputError("request body must be JSON with a \"url\" field", "Paste a product link and try again."))
		return
	}

	result, err := h.products.ExtractProduct(c.Request.Context(), &request)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := "MISS"
	if result.Cache == domain.CacheHit {
		status = "HIT"
	}
	c.Header("X-Cache", status)
	c.Set(cacheStatusKey, status)
	c.JSON(http.StatusOK, result)
}

// ManualLabel builds a record from user-entered fields
func (h *Handler) ManualLabel(c *gin.Context) {
	if h.products == nil {
		h.respondError(c, errors.New("product service not configured"))
		return
	}

	var request domain.ManualLabelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.respondError(c, domain.NewInputError("request body must be a JSON object", ""))
		return
	}

	record, err := h.products.BuildManualRecord(&request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// GetDrying resolves one filament type
func (h *Handler) GetDrying(c *gin.Context) {
	label := strings.TrimSpace(c.Param("type"))

	key, params, ok := h.drying.Resolve(label)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: domain.ErrUnknownFilament.Error() + ": " + label,
			Code:  "unknown_filament",
		})
		return
	}

	c.JSON(http.StatusOK, DryingResponse{
		FilamentType: key,
		Temperature:  params.Temperature,
		Duration:     params.Duration,
		Warning:      h.drying.WarningFor(key),
	})
}

// ListDrying returns the whole table sorted by filament type
func (h *Handler) ListDrying(c *gin.Context) {
	entries := h.drying.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FilamentType < entries[j].FilamentType
	})

	out := make([]DryingResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, DryingResponse{
			FilamentType: e.FilamentType,
			Temperature:  e.Temperature,
			Duration:     e.Duration,
			Warning:      h.drying.WarningFor(e.FilamentType),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

// CacheStats reports cache size and limits
func (h *Handler) CacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"size": 0, "maxEntries": 0, "ttl": ""})
		return
	}
	s := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"size":       s.Size,
		"maxEntries": s.MaxEntries,
		"ttl":        s.DefaultTTL.String(),
	})
}

// respondError maps domain errors onto status codes and a uniform body.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var inputErr *domain.InputError
	var fetchErr *domain.FetchError
	var notFilament *domain.NotFilamentError

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, ErrorResponse{
			Error: inputErr.Reason,
			Code:  "invalid_input",
			Hint:  inputErr.Hint,
		}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"}
	case errors.As(err, &notFilament):
		msg := fmt.Sprintf("This page (%q) does not look like a filament product.", notFilament.Title)
		if notFilament.Title == "" {
			msg = "Could not find a product title on this page."
		}
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: msg,
			Code:  "not_a_filament",
			Hint:  "Use a product page for a filament spool, or fill in the label manually.",
			Title: notFilament.Title,
		}
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, ErrorResponse{
			Error:              "Could not load the product page.",
			Code:               "fetch_failed",
			Hint:               "Check the link, or try again in a moment.",
			UpstreamStatus:     fetchErr.StatusCode,
			UpstreamStatusText: fetchErr.Status,
		}
	case errors.Is(err, domain.ErrFetchFailure):
		return http.StatusBadGateway, ErrorResponse{Error: "Could not load the product page.", Code: "fetch_failed"}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Error: err.Error(), Code: "rate_limited"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"}
	}
}
