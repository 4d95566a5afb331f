// Package jsonstore converts the URL collection to and from the JSON array
// persisted under the storage key. Every repository backend stores the same
// document, so a snapshot can be moved between backends as-is.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vadimbarashkov/snaplink/internal/entity"
)

// DefaultKey is the storage key the URL collection lives under.
const DefaultKey = "shortenedUrls"

type clickRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Geo       string    `json:"geo"`
}

type urlRecord struct {
	URL       string        `json:"url"`
	ShortCode string        `json:"shortcode"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Clicks    []clickRecord `json:"clicks"`
}

func (r *urlRecord) toEntity() entity.URL {
	clicks := make([]entity.Click, 0, len(r.Clicks))
	for _, c := range r.Clicks {
		clicks = append(clicks, entity.Click{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Geo:       c.Geo,
		})
	}

	return entity.URL{
		ShortCode:   r.ShortCode,
		OriginalURL: r.URL,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		Clicks:      clicks,
	}
}

func fromEntity(u entity.URL) urlRecord {
	clicks := make([]clickRecord, 0, len(u.Clicks))
	for _, c := range u.Clicks {
		clicks = append(clicks, clickRecord{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Geo:       c.Geo,
		})
	}

	return urlRecord{
		URL:       u.OriginalURL,
		ShortCode: u.ShortCode,
		CreatedAt: u.CreatedAt,
		ExpiresAt: u.ExpiresAt,
		Clicks:    clicks,
	}
}

// Encode serializes the URLs as a JSON array. A nil slice encodes as [].
func Encode(urls []entity.URL) ([]byte, error) {
	const op = "jsonstore.Encode"

	records := make([]urlRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, fromEntity(u))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode urls: %w", op, err)
	}

	return data, nil
}

// Decode parses a JSON array of URLs. Empty, null or malformed input
// yields an empty collection.
func Decode(data []byte) []entity.URL {
	var records []urlRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []entity.URL{}
	}

	urls := make([]entity.URL, 0, len(records))
	for i := range records {
		urls = append(urls, records[i].toEntity())
	}

	return urls
}
