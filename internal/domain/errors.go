package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the request URL or manual record is unusable
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailure is returned when the product page cannot be retrieved
	ErrFetchFailure = errors.New("failed to fetch product page")

	// ErrNotAFilamentProduct is returned when a page parses but carries no filament signal
	ErrNotAFilamentProduct = errors.New("not a filament product")

	// ErrImageFetchFailure is returned by image fetches. Callers treat it as non-fatal.
	ErrImageFetchFailure = errors.New("failed to fetch product image")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnknownFilament is returned when a drying lookup finds no entry
	ErrUnknownFilament = errors.New("unknown filament type")
)

// InputError describes a rejected request together with a hint the UI can show.
type InputError struct {
	Reason string
	Hint   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

// Is reports ErrInvalidInput so callers can match with errors.Is.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInputError builds an InputError.
func NewInputError(reason, hint string) *InputError {
	return &InputError{Reason: reason, Hint: hint}
}

// FetchError carries the upstream status of a failed page or image fetch.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned %s", ErrFetchFailure, e.URL, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFetchFailure, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFetchFailure, e.URL)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFilamentError is returned by the validation gate. Title is the title that was detected.
type NotFilamentError struct {
	Title string
}

func (e *NotFilamentError) Error() string {
	if e.Title == "" {
		return ErrNotAFilamentProduct.Error()
	}
	return fmt.Sprintf("%s: %q does not look like a filament spool", ErrNotAFilamentProduct, e.Title)
}

func (e *NotFilamentError) Is(target error) bool {
	return target == ErrNotAFilamentProduct
}
