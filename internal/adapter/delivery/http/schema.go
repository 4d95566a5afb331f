package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

const statusError = "error"

// shortenRequest is a batch of up to the configured number of rows.
type shortenRequest struct {
	URLs []shortenRow `json:"urls" validate:"required"`
}

// shortenRow is one submission row. Validity is in minutes; empty means the default.
type shortenRow struct {
	URL       string `json:"url"`
	Validity  string `json:"validity"`
	ShortCode string `json:"shortcode"`
}

func (req *shortenRequest) toEntity() []entity.ShortenInput {
	rows := make([]entity.ShortenInput, 0, len(req.URLs))
	for _, row := range req.URLs {
		rows = append(rows, entity.ShortenInput{
			URL:       row.URL,
			Validity:  row.Validity,
			ShortCode: row.ShortCode,
		})
	}
	return rows
}

type urlResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	ClickCount  int       `json:"click_count"`
}

type clickResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Geo       string    `json:"geo"`
}

type urlStatsResponse struct {
	urlResponse
	Expired bool            `json:"expired"`
	Clicks  []clickResponse `json:"clicks"`
}

type urlListResponse[T any] struct {
	URLs []T `json:"urls"`
}

func toURLResponse(url *entity.URL, shortURL string) urlResponse {
	return urlResponse{
		ShortCode:   url.ShortCode,
		ShortURL:    shortURL,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
		ClickCount:  len(url.Clicks),
	}
}

func toURLStatsResponse(url *entity.URL, shortURL string, now time.Time) urlStatsResponse {
	clicks := make([]clickResponse, 0, len(url.Clicks))
	for _, c := range url.Clicks {
		clicks = append(clicks, clickResponse{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Geo:       c.Geo,
		})
	}

	return urlStatsResponse{
		urlResponse: toURLResponse(url, shortURL),
		Expired:     url.IsExpired(now),
		Clicks:      clicks,
	}
}

// validationError represents an individual request field error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// rowError is a message for one rejected submission row.
type rowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
	Rows    []rowError        `json:"rows,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	tooManyURLsResponse = errorResponse{
		Status:  statusError,
		Message: "too many urls in one request",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	shortURLNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "short url not found",
	}

	shortURLExpiredResponse = errorResponse{
		Status:  statusError,
		Message: "short url expired",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}

// messageForRowError returns the message shown next to a rejected row.
func messageForRowError(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		return "Invalid URL format"
	case errors.Is(err, entity.ErrInvalidValidity):
		return "Validity must be a positive number"
	case errors.Is(err, entity.ErrInvalidShortCode):
		return "Shortcode must be 4-16 letters or numbers"
	case errors.Is(err, entity.ErrShortCodeExists):
		return "Shortcode already used"
	default:
		return "invalid value"
	}
}

func rowsErrorResponse(err *entity.ValidationError) errorResponse {
	rows := make([]rowError, 0, len(err.Rows))
	for _, r := range err.Rows {
		rows = append(rows, rowError{
			Row:     r.Row,
			Message: messageForRowError(r.Err),
		})
	}

	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Rows:    rows,
	}
}
