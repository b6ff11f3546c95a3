package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/internal/domain"
	"github.com/baglabel/backend/internal/infrastructure/cache"
)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL    time.Duration
	URLPolicy   URLPolicy
	EmbedImages bool
}

// ProductService turns storefront product URLs into label records
type ProductService struct {
	cache       domain.CacheRepository
	fetcher     domain.PageFetcher
	extractor   domain.PageExtractor
	drying      *DryingTable
	policy      URLPolicy
	cacheTTL    time.Duration
	embedImages bool
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewProductService creates a new product service with dependencies
func NewProductService(
	cacheRepo domain.CacheRepository,
	fetcher domain.PageFetcher,
	extractor domain.PageExtractor,
	drying *DryingTable,
	config ProductServiceConfig,
	logger logrus.FieldLogger,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	if drying == nil {
		drying = DefaultDryingTable()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &ProductService{
		cache:       cacheRepo,
		fetcher:     fetcher,
		extractor:   extractor,
		drying:      drying,
		policy:      config.URLPolicy,
		cacheTTL:    cacheTTL,
		embedImages: config.EmbedImages,
		logger:      logger.WithField("component", "product_service"),
		now:         time.Now,
	}
}

// Drying exposes the table used for augmentation.
func (s *ProductService) Drying() *DryingTable {
	return s.drying
}

// ExtractProduct resolves a product URL to a label record.
// Flow: validate -> cache -> fetch -> extract -> gate -> augment -> image -> cache
func (s *ProductService) ExtractProduct(
	ctx context.Context,
	request *domain.ExtractRequest,
) (*domain.ExtractResult, error) {
	if request == nil {
		return nil, domain.NewInputError("url is required", hintStorefront)
	}

	u, err := s.policy.Validate(request.URL)
	if err != nil {
		return nil, err
	}
	selector, err := ParseVariantSelector(u)
	if err != nil {
		return nil, err
	}

	pageURL := u.String()
	key := cache.KeyForURL(pageURL)
	log := s.logger.WithField("cache_key", key)

	if cached := s.getFromCache(ctx, key); cached != nil {
		log.Debug("cache hit")
		return &domain.ExtractResult{Record: cached, Cache: domain.CacheHit}, nil
	}

	html, err := s.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		log.WithError(err).Warn("page fetch failed")
		return nil, err
	}

	data := s.extractor.Extract(html, pageURL, selector)
	if data == nil || strings.TrimSpace(data.Title) == "" {
		return nil, &domain.NotFilamentError{}
	}

	color := data.Color
	size := ""
	if selector.FromProperties() {
		if selector.Color != "" {
			color = selector.Color
		}
		size = selector.Size
	}

	if !HasFilamentSignal(data.Title) && color == "" {
		log.WithField("title", data.Title).Info("rejected non-filament product")
		return nil, &domain.NotFilamentError{Title: data.Title}
	}

	record := &domain.ProductRecord{
		Title:       data.Title,
		Image:       data.Image,
		Source:      u.Hostname(),
		URL:         pageURL,
		Color:       color,
		ColorImage:  data.ColorImage,
		Size:        size,
		ExtractedAt: s.now().UTC(),
	}
	s.applyDrying(record, record.Title)

	if s.embedImages && record.Image != "" {
		img, err := s.fetcher.FetchImage(ctx, record.Image)
		if err != nil {
			log.WithError(err).Warn("image fetch failed, continuing without image data")
		} else {
			record.ImageData = img
		}
	}

	if err := s.cache.Set(ctx, key, record, s.cacheTTL); err != nil {
		log.WithError(err).Warn("failed to cache record")
	}

	log.WithFields(logrus.Fields{
		"title":         record.Title,
		"color":         record.Color,
		"filament_type": record.FilamentType,
	}).Info("product extracted")

	return &domain.ExtractResult{Record: cloneRecord(record), Cache: domain.CacheMiss}, nil
}

// BuildManualRecord builds a record from user-entered fields without any fetch.
// An explicit filament type wins over detection from the title.
func (s *ProductService) BuildManualRecord(request *domain.ManualLabelRequest) (*domain.ProductRecord, error) {
	if request == nil || strings.TrimSpace(request.Title) == "" {
		return nil, domain.NewInputError("title is required", "Enter the product name as printed on the spool.")
	}

	record := &domain.ProductRecord{
		Title:       strings.TrimSpace(request.Title),
		Image:       strings.TrimSpace(request.Image),
		Source:      "manual",
		URL:         strings.TrimSpace(request.URL),
		Color:       strings.TrimSpace(request.Color),
		ColorImage:  strings.TrimSpace(request.ColorImage),
		Size:        strings.TrimSpace(request.Size),
		ExtractedAt: s.now().UTC(),
	}

	label := strings.TrimSpace(request.FilamentType)
	if label == "" {
		label = record.Title
	}
	s.applyDrying(record, label)
	return record, nil
}

// applyDrying fills filament type, drying parameters and warning from label.
func (s *ProductService) applyDrying(record *domain.ProductRecord, label string) {
	key, params, found := s.drying.Resolve(label)
	if !found {
		return
	}

	record.FilamentType = key
	record.DryingTemperature = params.Temperature
	record.DryingDuration = params.Duration
	record.Warning = s.drying.WarningFor(key)
}

// getFromCache returns a copy of the cached record or nil on any miss.
func (s *ProductService) getFromCache(ctx context.Context, key string) *domain.ProductRecord {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.WithError(err).Warn("cache read failed")
		}
		return nil
	}

	record, ok := value.(*domain.ProductRecord)
	if !ok || record == nil {
		return nil
	}
	return cloneRecord(record)
}

func cloneRecord(r *domain.ProductRecord) *domain.ProductRecord {
	c := *r
	if r.Warning != nil {
		w := *r.Warning
		c.Warning = &w
	}
	return &c
}
