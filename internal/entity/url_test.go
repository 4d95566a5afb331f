package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURL_IsExpired(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	url := URL{CreatedAt: createdAt, ExpiresAt: createdAt.Add(time.Minute)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before expiry", now: createdAt.Add(30 * time.Second), want: false},
		{name: "exactly at expiry", now: createdAt.Add(time.Minute), want: false},
		{name: "after expiry", now: createdAt.Add(time.Minute + time.Millisecond), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, url.IsExpired(tt.now))
		})
	}
}

func TestURL_Clone(t *testing.T) {
	orig := URL{
		ShortCode: "abcd",
		Clicks:    []Click{{Source: SourceDirect, Geo: GeoUnknown}},
	}

	clone := orig.Clone()
	clone.Clicks[0].Source = "https://changed.example"
	clone.Clicks = append(clone.Clicks, Click{})

	assert.Equal(t, SourceDirect, orig.Clicks[0].Source)
	assert.Len(t, orig.Clicks, 1)
}

func TestCloneURLs(t *testing.T) {
	assert.Nil(t, CloneURLs(nil))

	urls := []URL{{ShortCode: "abcd", Clicks: []Click{{Source: SourceDirect}}}}
	clones := CloneURLs(urls)
	clones[0].Clicks[0].Source = "changed"

	assert.Equal(t, SourceDirect, urls[0].Clicks[0].Source)
}

func TestValidationError(t *testing.T) {
	err := error(&ValidationError{
		Rows: []RowError{
			{Row: 0, Err: ErrInvalidURL},
			{Row: 3, Err: ErrShortCodeExists},
		},
	})

	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.ErrorIs(t, err, ErrShortCodeExists)
	assert.NotErrorIs(t, err, ErrInvalidValidity)
	assert.Equal(t, "validation failed: row 0: invalid url format; row 3: short code exists", err.Error())

	var rowErr *RowError
	assert.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 0, rowErr.Row)
}

func TestNewEvent(t *testing.T) {
	assert.Equal(t, Event{
		Stack:   StackBackend,
		Level:   LevelWarn,
		Package: "redirect",
		Message: "Shortcode expired: abcd",
	}, NewEvent(LevelWarn, "redirect", "Shortcode expired: abcd"))
}
