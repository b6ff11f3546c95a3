package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves storefront pages and product images
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// PageExtractor turns raw HTML into page-level product fields
type PageExtractor interface {
	Extract(html, sourceURL string, selector VariantSelector) *PageData
}
