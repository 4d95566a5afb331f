package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/snaplink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultMaxURLs         = 5
	defaultValidity        = 30 * time.Minute
	defaultShortCodeLength = 6

	// maxValidityMinutes is the largest validity that still fits in a time.Duration.
	maxValidityMinutes = int(math.MaxInt64 / time.Minute)

	shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Telemetry packages.
const (
	pkgValidation = "validation"
	pkgShortener  = "shortener"
	pkgRedirect   = "redirect"
	pkgStats      = "stats"
)

type urlRepository interface {
	Load(ctx context.Context) ([]entity.URL, error)
	Save(ctx context.Context, urls []entity.URL) error
}

type telemetry interface {
	Record(ctx context.Context, event entity.Event)
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithMaxURLs sets the maximum number of rows accepted in one batch.
func WithMaxURLs(n int) Option {
	return func(uc *URLUseCase) {
		uc.maxURLs = n
	}
}

// WithDefaultValidity sets the validity used when a row does not provide one.
func WithDefaultValidity(d time.Duration) Option {
	return func(uc *URLUseCase) {
		uc.defaultValidity = d
	}
}

// WithShortCodeLength sets the length of generated short codes.
func WithShortCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		uc.shortCodeLength = n
	}
}

// WithReservedCodes marks codes that can never be used, e.g. route segments.
func WithReservedCodes(codes ...string) Option {
	return func(uc *URLUseCase) {
		for _, c := range codes {
			uc.reserved[c] = struct{}{}
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithCodeGenerator replaces the short code generator.
func WithCodeGenerator(generate func(length int) (string, error)) Option {
	return func(uc *URLUseCase) {
		uc.generate = generate
	}
}

type URLUseCase struct {
	mu sync.Mutex

	urlRepo   urlRepository
	telemetry telemetry
	validate  *validator.Validate

	maxURLs         int
	defaultValidity time.Duration
	shortCodeLength int
	reserved        map[string]struct{}
	now             func() time.Time
	generate        func(length int) (string, error)
}

func NewURLUseCase(urlRepo urlRepository, telemetry telemetry, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:         urlRepo,
		telemetry:       telemetry,
		validate:        validator.New(),
		maxURLs:         defaultMaxURLs,
		defaultValidity: defaultValidity,
		shortCodeLength: defaultShortCodeLength,
		reserved:        make(map[string]struct{}),
		now:             time.Now,
		generate:        generateShortCode,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func generateShortCode(length int) (string, error) {
	return gonanoid.Generate(shortCodeAlphabet, length)
}

// timestamp returns the current time the way it is persisted.
func (uc *URLUseCase) timestamp() time.Time {
	return uc.now().UTC().Truncate(time.Millisecond)
}

func (uc *URLUseCase) record(ctx context.Context, level, pkg, format string, args ...any) {
	uc.telemetry.Record(ctx, entity.NewEvent(level, pkg, fmt.Sprintf(format, args...)))
}

// commit runs one read-modify-write cycle against the repository.
// The store is written only when mutate returns a nil error.
func (uc *URLUseCase) commit(ctx context.Context, mutate func(urls []entity.URL) ([]entity.URL, error)) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	urls, err := uc.urlRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load urls: %w", err)
	}

	urls, err = mutate(urls)
	if err != nil {
		return err
	}

	if err := uc.urlRepo.Save(ctx, urls); err != nil {
		return fmt.Errorf("failed to save urls: %w", err)
	}

	return nil
}

// ShortenURLs validates a batch of rows and stores one URL per filled row.
//
// Rows with an empty URL are skipped. Either every filled row is stored and
// returned, or nothing is stored and a *entity.ValidationError describing
// each failed row is returned.
func (uc *URLUseCase) ShortenURLs(ctx context.Context, rows []entity.ShortenInput) ([]entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURLs"

	if len(rows) > uc.maxURLs {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrTooManyURLs)
	}

	var created []entity.URL

	err := uc.commit(ctx, func(urls []entity.URL) ([]entity.URL, error) {
		used := make(map[string]struct{}, len(urls)+len(uc.reserved))
		for _, u := range urls {
			used[u.ShortCode] = struct{}{}
		}
		for c := range uc.reserved {
			used[c] = struct{}{}
		}

		var rowErrs []entity.RowError

		for i, row := range rows {
			if row.URL == "" {
				continue
			}

			url, err := uc.buildURL(row, used)
			if err != nil {
				var rowErr *entity.RowError
				if !errors.As(err, &rowErr) {
					return nil, err
				}
				rowErr.Row = i
				rowErrs = append(rowErrs, *rowErr)
				uc.recordRejection(ctx, row, rowErr.Err, url.ShortCode)
				continue
			}

			used[url.ShortCode] = struct{}{}
			created = append(created, url)
		}

		if len(rowErrs) > 0 {
			return nil, &entity.ValidationError{Rows: rowErrs}
		}
		if len(created) == 0 {
			return nil, errNothingToCommit
		}

		return append(urls, created...), nil
	})
	if err != nil {
		if errors.Is(err, errNothingToCommit) {
			return []entity.URL{}, nil
		}

		var validationErr *entity.ValidationError
		if errors.As(err, &validationErr) {
			return nil, validationErr
		}

		return nil, fmt.Errorf("%s: failed to shorten urls: %w", op, err)
	}

	for _, url := range created {
		uc.record(ctx, entity.LevelInfo, pkgShortener, "Shortened URL: %s -> %s", url.OriginalURL, url.ShortCode)
	}

	return entity.CloneURLs(created), nil
}

var errNothingToCommit = errors.New("nothing to commit")

// buildURL validates one row and turns it into a URL.
// Validation failures are returned as *entity.RowError; on a collision the
// returned URL still carries the rejected short code.
func (uc *URLUseCase) buildURL(row entity.ShortenInput, used map[string]struct{}) (entity.URL, error) {
	if err := uc.validate.Var(row.URL, "url"); err != nil {
		return entity.URL{}, &entity.RowError{Err: entity.ErrInvalidURL}
	}

	validity := uc.defaultValidity
	if row.Validity != "" {
		minutes, err := strconv.Atoi(row.Validity)
		if err != nil || minutes <= 0 || minutes > maxValidityMinutes {
			return entity.URL{}, &entity.RowError{Err: entity.ErrInvalidValidity}
		}
		validity = time.Duration(minutes) * time.Minute
	}

	code := row.ShortCode
	if code == "" {
		var err error
		code, err = uc.generate(uc.shortCodeLength)
		if err != nil {
			return entity.URL{}, fmt.Errorf("failed to generate short code: %w", err)
		}
	} else if err := uc.validate.Var(code, "alphanum,min=4,max=16"); err != nil {
		return entity.URL{}, &entity.RowError{Err: entity.ErrInvalidShortCode}
	}

	if _, ok := used[code]; ok {
		return entity.URL{ShortCode: code}, &entity.RowError{Err: entity.ErrShortCodeExists}
	}

	createdAt := uc.timestamp()

	return entity.URL{
		ShortCode:   code,
		OriginalURL: row.URL,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(validity),
		Clicks:      []entity.Click{},
	}, nil
}

func (uc *URLUseCase) recordRejection(ctx context.Context, row entity.ShortenInput, cause error, code string) {
	switch {
	case errors.Is(cause, entity.ErrInvalidURL):
		uc.record(ctx, entity.LevelError, pkgValidation, "Malformed URL: %s", row.URL)
	case errors.Is(cause, entity.ErrInvalidValidity):
		uc.record(ctx, entity.LevelError, pkgValidation, "Invalid validity: %s", row.Validity)
	case errors.Is(cause, entity.ErrInvalidShortCode):
		uc.record(ctx, entity.LevelError, pkgValidation, "Invalid shortcode: %s", row.ShortCode)
	case errors.Is(cause, entity.ErrShortCodeExists):
		uc.record(ctx, entity.LevelError, pkgValidation, "Shortcode collision: %s", code)
	}
}

// ResolveShortCode finds the URL for the short code and records a click on it.
// referrer becomes the click source; an empty referrer is recorded as direct.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode, referrer string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	var resolved entity.URL

	err := uc.commit(ctx, func(urls []entity.URL) ([]entity.URL, error) {
		i := indexOf(urls, shortCode)
		if i < 0 {
			return nil, entity.ErrURLNotFound
		}

		now := uc.timestamp()
		if urls[i].IsExpired(now) {
			return nil, entity.ErrURLExpired
		}

		source := referrer
		if source == "" {
			source = entity.SourceDirect
		}

		urls[i].Clicks = append(urls[i].Clicks, entity.Click{
			Timestamp: now,
			Source:    source,
			Geo:       entity.GeoUnknown,
		})
		resolved = urls[i].Clone()

		return urls, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrURLNotFound):
			uc.record(ctx, entity.LevelError, pkgRedirect, "Shortcode not found: %s", shortCode)
		case errors.Is(err, entity.ErrURLExpired):
			uc.record(ctx, entity.LevelWarn, pkgRedirect, "Shortcode expired: %s", shortCode)
		}

		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	uc.record(ctx, entity.LevelInfo, pkgRedirect, "Redirected: %s", shortCode)

	return &resolved, nil
}

// ListURLs returns every stored URL together with its click history.
func (uc *URLUseCase) ListURLs(ctx context.Context) ([]entity.URL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.urlRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load urls: %w", op, err)
	}

	uc.record(ctx, entity.LevelInfo, pkgStats, "Loaded statistics page")

	if urls == nil {
		urls = []entity.URL{}
	}

	return urls, nil
}

// GetURLStats returns the URL stored under the short code without recording a click.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	urls, err := uc.urlRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load urls: %w", op, err)
	}

	i := indexOf(urls, shortCode)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return &urls[i], nil
}

// Summary counts stored URLs, expired URLs and recorded clicks.
func (uc *URLUseCase) Summary(ctx context.Context) (entity.Summary, error) {
	const op = "usecase.URLUseCase.Summary"

	urls, err := uc.urlRepo.Load(ctx)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("%s: failed to load urls: %w", op, err)
	}

	now := uc.now()
	summary := entity.Summary{URLs: len(urls)}
	for _, u := range urls {
		if u.IsExpired(now) {
			summary.Expired++
		}
		summary.Clicks += len(u.Clicks)
	}

	return summary, nil
}

func indexOf(urls []entity.URL, shortCode string) int {
	for i := range urls {
		if urls[i].ShortCode == shortCode {
			return i
		}
	}
	return -1
}
