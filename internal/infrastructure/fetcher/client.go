package fetcher

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/baglabel/backend/internal/domain"
)

// ErrBodyTooLarge is returned when a response exceeds Config.MaxBodyBytes
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Config controls the outbound request profile
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	Accept            string
	AcceptLanguage    string
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
	MaxRetries        int
}

// DefaultConfig mirrors a current desktop Chrome profile
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		UserAgent:         DefaultUserAgent,
		Accept:            DefaultAccept,
		AcceptLanguage:    DefaultAcceptLanguage,
		RequestsPerSecond: 2,
		Burst:             5,
		MaxBodyBytes:      8 << 20,
		MaxRetries:        2,
	}
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/131.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.9"

	imageAccept = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// Client fetches storefront pages and images with a browser-like header profile
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// NewClient creates a new storefront client
func NewClient(config Config, logger logrus.FieldLogger) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Accept == "" {
		config.Accept = defaults.Accept
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = defaults.AcceptLanguage
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:      config,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:      logger.WithField("component", "fetcher"),
	}
}

// FetchPage retrieves the HTML of a product page.
// Non-2xx responses and transport failures are returned as *domain.FetchError.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxRetries+1; attempt++ {
		body, err := c.get(ctx, pageURL, c.config.Accept)
		if err == nil {
			c.logger.WithFields(logrus.Fields{
				"url":   pageURL,
				"bytes": len(body),
			}).Debug("fetched page")
			return string(body), nil
		}

		lastErr = err
		if !retryable(err) || attempt > c.config.MaxRetries {
			break
		}

		c.logger.WithError(err).WithField("attempt", attempt).Warn("page fetch failed, retrying")
		select {
		case <-ctx.Done():
			return "", &domain.FetchError{URL: pageURL, Err: ctx.Err()}
		case <-time.After(exponentialBackoff(attempt)):
		}
	}

	return "", lastErr
}

// FetchImage retrieves raw image bytes. It is never retried; callers treat
// failure as non-fatal and fall back to the bare URL.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	body, err := c.get(ctx, imageURL, imageAccept)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageFetchFailure, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body from %s", domain.ErrImageFetchFailure, imageURL)
	}
	return body, nil
}

// get executes one rate-limited GET bounded by the configured timeout
func (c *Client) get(ctx context.Context, reqURL, accept string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &domain.FetchError{URL: reqURL, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: reqURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	c.applyHeaders(req, accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, &domain.FetchError{URL: reqURL, Err: err}
	}
	defer reader.Close()

	body, err := io.ReadAll(io.LimitReader(reader, c.config.MaxBodyBytes+1))
	if err != nil {
		return nil, &domain.FetchError{URL: reqURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > c.config.MaxBodyBytes {
		return nil, &domain.FetchError{URL: reqURL, Err: fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, c.config.MaxBodyBytes)}
	}
	return body, nil
}

func (c *Client) applyHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", c.config.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// decodeBody unwraps the content encodings advertised in Accept-Encoding.
// Setting Accept-Encoding manually turns off the transport's own gzip handling.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, nil
	case "deflate":
		return deflateReader(resp.Body)
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

// deflateReader handles "deflate" bodies. Servers normally send the zlib
// wrapper, but some send a raw deflate stream, so the header is sniffed first.
func deflateReader(body io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	header, err := br.Peek(2)
	if err != nil && len(header) < 2 {
		return io.NopCloser(br), nil
	}
	if header[0]&0x0f == 8 && (uint16(header[0])<<8|uint16(header[1]))%31 == 0 {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return zr, nil
	}
	return flate.NewReader(br), nil
}

// retryable reports whether a failed fetch is worth repeating: transport
// errors, 429 and 5xx. Other client errors are final.
func retryable(err error) bool {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	if fe.StatusCode == 0 {
		if errors.Is(fe.Err, ErrBodyTooLarge) {
			return false
		}
		return !errors.Is(fe.Err, context.Canceled) && !errors.Is(fe.Err, context.DeadlineExceeded)
	}
	return fe.StatusCode == http.StatusTooManyRequests || fe.StatusCode >= 500
}

// exponentialBackoff returns 250ms, 500ms, 1s, ... for attempts 1, 2, 3
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))) * time.Millisecond
}
