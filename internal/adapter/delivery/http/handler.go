package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

const (
	notFoundPath = "/notfound"
	expiredPath  = "/expired"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURLs(ctx context.Context, rows []entity.ShortenInput) ([]entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode, referrer string) (*entity.URL, error)
	ListURLs(ctx context.Context) ([]entity.URL, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	metrics  *metrics
	baseURL  string
	now      func() time.Time
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, m *metrics, baseURL string) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		metrics:  m,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		now:      time.Now,
	}
}

// shortURL returns the public address of a short code.
func (h *urlHandler) shortURL(r *http.Request, shortCode string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	return base + "/" + shortCode
}

func (h *urlHandler) shortenURLs(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	urls, err := h.useCase.ShortenURLs(r.Context(), req.toEntity())
	if err != nil {
		var validationErr *entity.ValidationError
		if errors.As(err, &validationErr) {
			h.metrics.rejectedBatches.Inc()

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, rowsErrorResponse(validationErr))
			return
		}

		if errors.Is(err, entity.ErrTooManyURLs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, tooManyURLsResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	resp := urlListResponse[urlResponse]{URLs: make([]urlResponse, 0, len(urls))}
	for i := range urls {
		resp.URLs = append(resp.URLs, toURLResponse(&urls[i], h.shortURL(r, urls[i].ShortCode)))
	}

	if len(urls) == 0 {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
		return
	}

	h.metrics.shortenedURLs.Add(float64(len(urls)))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode, r.Referer())
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrURLNotFound):
			h.metrics.redirects.WithLabelValues(outcomeNotFound).Inc()
			http.Redirect(w, r, notFoundPath, http.StatusFound)
		case errors.Is(err, entity.ErrURLExpired):
			h.metrics.redirects.WithLabelValues(outcomeExpired).Inc()
			http.Redirect(w, r, expiredPath, http.StatusFound)
		default:
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	h.metrics.redirects.WithLabelValues(outcomeRedirected).Inc()
	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, shortURLNotFoundResponse)
}

func (h *urlHandler) expired(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusGone)
	render.JSON(w, r, shortURLExpiredResponse)
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.ListURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	now := h.now()
	resp := urlListResponse[urlStatsResponse]{URLs: make([]urlStatsResponse, 0, len(urls))}
	for i := range urls {
		resp.URLs = append(resp.URLs, toURLStatsResponse(&urls[i], h.shortURL(r, urls[i].ShortCode), now))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(url, h.shortURL(r, url.ShortCode), h.now()))
}
