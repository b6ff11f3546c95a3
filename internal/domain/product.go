package domain

import "time"

// ProductRecord is the flat record handed to the label renderer
type ProductRecord struct {
	Title             string           `json:"title"`
	Image             string           `json:"image,omitempty"`
	ImageData         []byte           `json:"imageData,omitempty"`
	Source            string           `json:"source"`
	URL               string           `json:"url"`
	Color             string           `json:"color,omitempty"`
	ColorImage        string           `json:"colorImage,omitempty"`
	Size              string           `json:"size,omitempty"`
	FilamentType      string           `json:"filamentType,omitempty"`
	DryingTemperature string           `json:"dryingTemperature,omitempty"`
	DryingDuration    string           `json:"dryingDuration,omitempty"`
	Warning           *FilamentWarning `json:"warning,omitempty"`
	ExtractedAt       time.Time        `json:"extractedAt,omitempty"`
}

// ExtractRequest is the inbound request for URL-based extraction
type ExtractRequest struct {
	URL string `json:"url" binding:"required"`
}

// ManualLabelRequest carries user-entered fields for the manual-input path
type ManualLabelRequest struct {
	Title        string `json:"title"`
	Image        string `json:"image,omitempty"`
	URL          string `json:"url,omitempty"`
	Color        string `json:"color,omitempty"`
	ColorImage   string `json:"colorImage,omitempty"`
	Size         string `json:"size,omitempty"`
	FilamentType string `json:"filamentType,omitempty"`
}

// CacheStatus reports whether a record came from the cache
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// ExtractResult pairs a record with its cache status
type ExtractResult struct {
	Record *ProductRecord `json:"data"`
	Cache  CacheStatus    `json:"cache"`
}

// VariantSelector identifies the variant requested in a product URL.
// Either VariantID is set, or Color/Size were decoded from the property blob.
type VariantSelector struct {
	VariantID string
	Color     string
	Size      string
}

// FromProperties reports whether the selector came from the property blob.
func (v VariantSelector) FromProperties() bool {
	return v.VariantID == "" && (v.Color != "" || v.Size != "")
}

// PageData is what the extractor recovers from one product page
type PageData struct {
	Title      string
	Image      string
	Color      string
	ColorImage string
}
