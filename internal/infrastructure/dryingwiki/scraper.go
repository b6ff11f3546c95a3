// Package dryingwiki regenerates the drying table from the vendor wiki page.
package dryingwiki

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/internal/domain"
)

// ErrNoTable is returned when the page has no recognizable drying table
var ErrNoTable = errors.New("no drying table found on page")

// Column layout: Filament | Requirement | Desiccant | Oven temp | Oven duration | ...
const (
	colType     = 0
	colTemp     = 3
	colDuration = 4
	minColumns  = 5
)

var (
	rangeRegex    = regexp.MustCompile(`(\d+)(?:\s*[-–~]\s*(\d+))?`)
	whitespace    = regexp.MustCompile(`\s+`)
	nonASCII      = regexp.MustCompile(`[^\x00-\x7F]+`)
	cfgfRegex     = regexp.MustCompile(`^(.+)-CF/GF$`)
	typeSeparator = regexp.MustCompile(`[、,]`)
)

// Row is one data row as printed on the wiki
type Row struct {
	FilamentType string
	Temperature  string
	Duration     string
}

// Scraper fetches the wiki page and converts it to drying entries
type Scraper struct {
	fetcher domain.PageFetcher
	url     string
	logger  logrus.FieldLogger
}

// NewScraper creates a scraper for the given wiki URL.
func NewScraper(fetcher domain.PageFetcher, wikiURL string, logger logrus.FieldLogger) *Scraper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scraper{
		fetcher: fetcher,
		url:     wikiURL,
		logger:  logger.WithField("component", "dryingwiki"),
	}
}

// Scrape fetches the page and returns expanded, de-duplicated entries.
func (s *Scraper) Scrape(ctx context.Context) ([]domain.DryingEntry, error) {
	html, err := s.fetcher.FetchPage(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch wiki page: %w", err)
	}

	rows, err := ParseRows(html)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("rows", len(rows)).Info("parsed drying table")

	entries := BuildEntries(rows)
	if len(entries) == 0 {
		return nil, ErrNoTable
	}
	return entries, nil
}

// ParseRows reads every table that mentions PLA and a Celsius marker.
// The first row of each table is treated as the header.
func ParseRows(html string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse wiki page: %w", err)
	}

	var rows []Row
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		text := table.Text()
		if !strings.Contains(text, "PLA") || !(strings.Contains(text, "°C") || strings.Contains(text, "℃")) {
			return
		}

		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return
			}
			var cells []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, collapse(td.Text()))
			})
			if len(cells) < minColumns {
				return
			}
			rows = append(rows, Row{
				FilamentType: cells[colType],
				Temperature:  cells[colTemp],
				Duration:     cells[colDuration],
			})
		})
	})

	if len(rows) == 0 {
		return nil, ErrNoTable
	}
	return rows, nil
}

// BuildEntries normalizes rows into table entries, keeping the first
// occurrence of each filament type.
func BuildEntries(rows []Row) []domain.DryingEntry {
	seen := make(map[string]bool)
	var out []domain.DryingEntry

	for _, r := range rows {
		params := domain.DryingParameters{
			Temperature: normalizeRange(r.Temperature, "°C"),
			Duration:    normalizeRange(r.Duration, "h"),
		}
		for _, name := range ExpandTypes(r.FilamentType) {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, domain.DryingEntry{FilamentType: name, DryingParameters: params})
		}
	}
	return out
}

// ExpandTypes splits a wiki cell into table keys. "PA-CF/GF" yields PA-CF, PA-GF and PA.
func ExpandTypes(cell string) []string {
	var out []string
	for _, part := range typeSeparator.Split(cell, -1) {
		name := strings.TrimSpace(nonASCII.ReplaceAllString(strings.TrimSpace(part), ""))
		if name == "" {
			continue
		}
		if m := cfgfRegex.FindStringSubmatch(name); m != nil {
			out = append(out, m[1]+"-CF", m[1]+"-GF", m[1])
			continue
		}
		out = append(out, name)
	}
	return out
}

// normalizeRange turns "50-60" into "55"+unit and "80" into "80"+unit.
// Input without digits is returned unchanged.
func normalizeRange(value, unit string) string {
	m := rangeRegex.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	lo, _ := strconv.Atoi(m[1])
	if m[2] == "" {
		return strconv.Itoa(lo) + unit
	}
	hi, _ := strconv.Atoi(m[2])
	return strconv.Itoa((lo+hi+1)/2) + unit
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
