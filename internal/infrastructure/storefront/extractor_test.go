package storefront

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baglabel/backend/internal/domain"
)

const sourceURL = "https://us.store.bambulab.com/products/pla-basic-filament?variant=123"

func newTestExtractor() *Extractor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExtractor(logger)
}

const productGroupPage = `<!doctype html>
<html><head>
<title>Widget | Bambu Lab US</title>
<meta property="og:title" content="Widget PLA | Bambu Lab US">
<meta property="og:image" content="/cdn/shop/files/widget.png">
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "ProductGroup",
  "name": "Widget PLA",
  "hasVariant": [
    {"@type": "Product", "sku": "123", "name": "Widget - Red (42) / Spool / 1kg", "image": "//cdn.example.com/red.png"},
    {"@type": "Product", "sku": "456", "name": "Widget - Blue (43) / Refill / 1kg", "image": "//cdn.example.com/blue.png"}
  ]
}
</script>
</head><body></body></html>`

func TestExtract_ProductGroupVariant(t *testing.T) {
	e := newTestExtractor()

	data := e.Extract(productGroupPage, sourceURL, domain.VariantSelector{VariantID: "123"})

	require.NotNil(t, data)
	assert.Equal(t, "Widget PLA", data.Title)
	assert.Equal(t, "Red (42)", data.Color)
	assert.Equal(t, "https://cdn.example.com/red.png", data.Image)
	assert.Equal(t, "https://cdn.example.com/red.png", data.ColorImage)
}

func TestExtract_UnknownVariantKeepsPageImage(t *testing.T) {
	e := newTestExtractor()

	data := e.Extract(productGroupPage, sourceURL, domain.VariantSelector{VariantID: "999"})

	assert.Equal(t, "Widget PLA", data.Title)
	assert.Empty(t, data.Color)
	assert.Equal(t, "https://us.store.bambulab.com/cdn/shop/files/widget.png", data.Image)
	assert.Empty(t, data.ColorImage)
}

func TestExtract_NoVariantSkipsColor(t *testing.T) {
	e := newTestExtractor()

	data := e.Extract(productGroupPage, sourceURL, domain.VariantSelector{})

	assert.Empty(t, data.Color)
	assert.Equal(t, "https://us.store.bambulab.com/cdn/shop/files/widget.png", data.Image)
}

func TestExtract_ShopifyVariantMatchedByURL(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="PETG HF">
<script type="application/ld+json">
[{"@context":"https://schema.org","@graph":[{
  "@type":"ProductGroup",
  "name":"PETG HF",
  "hasVariant":[{
    "@type":"Product",
    "@id":"/products/petg-hf?variant=40001#variant",
    "sku":"G02-K0-1.75-1000-SPL",
    "name":"PETG HF - Black (33102) / Filament with spool / 1 kg",
    "image":{"@type":"ImageObject","url":"https://cdn.example.com/petg-black.png"},
    "offers":{"@type":"Offer","url":"https://us.store.bambulab.com/products/petg-hf?variant=40001"}
  }]
}]}]
</script></head><body></body></html>`

	e := newTestExtractor()
	data := e.Extract(page, "https://us.store.bambulab.com/products/petg-hf?variant=40001", domain.VariantSelector{VariantID: "40001"})

	assert.Equal(t, "PETG HF", data.Title)
	assert.Equal(t, "Black (33102)", data.Color)
	assert.Equal(t, "https://cdn.example.com/petg-black.png", data.Image)
}

func TestExtract_SingleProductColorProperty(t *testing.T) {
	page := `<html><head><title>TPU 95A</title>
<script type="application/ld+json">
{"@type":"Product","name":"TPU 95A","sku":777,"color":"Frozen","image":["https://cdn.example.com/tpu.png"]}
</script></head></html>`

	e := newTestExtractor()
	data := e.Extract(page, "https://store.bambulab.com/products/tpu?variant=777", domain.VariantSelector{VariantID: "777"})

	assert.Equal(t, "TPU 95A", data.Title)
	assert.Equal(t, "Frozen", data.Color)
	assert.Equal(t, "https://cdn.example.com/tpu.png", data.Image)
}

func TestExtract_TitleAndImageFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantImage string
	}{
		{
			name:      "og tags win",
			html:      `<html><head><title>Ignored</title><meta property="og:title" content="ABS Filament"><meta property="og:image" content="https://cdn.example.com/abs.png"></head></html>`,
			wantTitle: "ABS Filament",
			wantImage: "https://cdn.example.com/abs.png",
		},
		{
			name:      "title tag and product photo",
			html:      `<html><head><title>ASA Filament | Bambu Lab EU</title></head><body><div class="product-single__photo"><img src="//cdn.example.com/asa.png"></div></body></html>`,
			wantTitle: "ASA Filament",
			wantImage: "https://cdn.example.com/asa.png",
		},
		{
			name:      "meta with content before property",
			html:      `<html><head><meta content="PC Filament" property="og:title"><meta content="/img/pc.png" property="og:image"></head></html>`,
			wantTitle: "PC Filament",
			wantImage: "https://us.store.bambulab.com/img/pc.png",
		},
		{
			name:      "json-ld name and image",
			html:      `<html><head><script type="application/ld+json">{"@type":"Product","name":"PVA","image":"https://cdn.example.com/pva.png"}</script></head></html>`,
			wantTitle: "PVA",
			wantImage: "https://cdn.example.com/pva.png",
		},
		{
			name:      "entities decoded",
			html:      `<html><head><meta property="og:title" content="Support for PLA &amp; PETG | Bambu Lab US"></head></html>`,
			wantTitle: "Support for PLA & PETG",
			wantImage: "",
		},
		{
			name:      "nothing found",
			html:      `<html><body><p>hello</p></body></html>`,
			wantTitle: "",
			wantImage: "",
		},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := e.Extract(tt.html, sourceURL, domain.VariantSelector{})
			assert.Equal(t, tt.wantTitle, data.Title)
			assert.Equal(t, tt.wantImage, data.Image)
		})
	}
}

func TestExtract_MalformedJSONLDFallsBackToHydration(t *testing.T) {
	page := `<html><head><meta property="og:title" content="PLA Matte">
<script type="application/ld+json">{"@type": "ProductGroup", "hasVariant": [</script>
<script>window.__remixContext = JSON.parse("{\"variants\":[{\"id\":123,\"option\":\"Color\",\"value\":\"Charcoal (11101)\"}]}");</script>
</head></html>`

	e := newTestExtractor()
	data := e.Extract(page, sourceURL, domain.VariantSelector{VariantID: "123"})

	assert.Equal(t, "PLA Matte", data.Title)
	assert.Equal(t, "Charcoal (11101)", data.Color)
}

func TestExtract_PanickingStrategyIsSkipped(t *testing.T) {
	boom := Strategy{Name: "boom", Extract: func(p *Page) string { panic("bad markup") }}
	e := newTestExtractor().WithStrategies(
		append([]Strategy{boom}, DefaultTitleStrategies...),
		nil,
	)

	data := e.Extract(productGroupPage, sourceURL, domain.VariantSelector{})

	assert.Equal(t, "Widget PLA", data.Title)
}

func TestColorFromVariantName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Widget - Red (42) / Spool / 1kg", "Red (42)"},
		{"PLA Basic - Jade White (10100) / Filament with spool / 1 kg", "Jade White (10100)"},
		{"PLA-CF - Lava Red (14200)", "Lava Red (14200)"},
		{"Widget - Red (42) / Refill - 1kg", "Red (42)"},
		{"PLA-CF Matte / 1 kg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorFromVariantName(tt.name))
		})
	}
}
