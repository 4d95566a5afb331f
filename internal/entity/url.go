// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL together with
// its click history, the input rows accepted by the shortener and the
// telemetry events emitted while serving requests.
package entity

import "time"

const (
	// SourceDirect is recorded as the click source when the request carries no referrer.
	SourceDirect = "direct"
	// GeoUnknown is the placeholder geolocation recorded for every click.
	GeoUnknown = "unknown"
)

// URL represents a shortened URL.
type URL struct {
	ShortCode   string    // ShortCode is the code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
	ExpiresAt   time.Time // ExpiresAt is the timestamp after which the URL no longer redirects.
	Clicks      []Click   // Clicks is the append-only redirect history.
}

// IsExpired reports whether the URL is expired at the given moment.
func (u URL) IsExpired(now time.Time) bool {
	return now.After(u.ExpiresAt)
}

// Clone returns a copy of the URL that shares no memory with the receiver.
func (u URL) Clone() URL {
	if u.Clicks != nil {
		clicks := make([]Click, len(u.Clicks))
		copy(clicks, u.Clicks)
		u.Clicks = clicks
	}
	return u
}

// CloneURLs deep-copies a collection of URLs.
func CloneURLs(urls []URL) []URL {
	if urls == nil {
		return nil
	}

	out := make([]URL, len(urls))
	for i, u := range urls {
		out[i] = u.Clone()
	}
	return out
}

// Click represents one redirect through a shortened URL.
type Click struct {
	Timestamp time.Time // Timestamp is the moment of the redirect.
	Source    string    // Source is the referrer or SourceDirect.
	Geo       string    // Geo is the geolocation of the visitor, always GeoUnknown for now.
}

// ShortenInput is a single row submitted for shortening.
// Validity and ShortCode are optional and stay empty when not provided.
type ShortenInput struct {
	URL       string
	Validity  string
	ShortCode string
}

// Summary holds aggregated counters over the whole store.
type Summary struct {
	URLs    int
	Expired int
	Clicks  int
}
