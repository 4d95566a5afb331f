// Package telemetry delivers best-effort event notifications. Recording an
// event never blocks the caller and never fails.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vadimbarashkov/snaplink/internal/entity"
)

const (
	defaultTimeout      = 2 * time.Second
	defaultQueueSize    = 1024
	defaultDrainTimeout = 5 * time.Second
)

type payload struct {
	Stack   string `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

type EmitterOption func(*Emitter)

// WithTimeout bounds a single delivery attempt.
func WithTimeout(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

func WithQueueSize(n int) EmitterOption {
	return func(e *Emitter) {
		if n > 0 {
			e.queue = make(chan entity.Event, n)
		}
	}
}

// WithDrainTimeout bounds how long Run keeps sending queued events after its context is done.
func WithDrainTimeout(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.drainTimeout = d
	}
}

func WithHTTPClient(client *http.Client) EmitterOption {
	return func(e *Emitter) {
		e.client = client
	}
}

// Emitter posts events as JSON to a remote collector from a background worker.
// Events recorded while the queue is full are dropped.
type Emitter struct {
	endpoint     string
	client       *http.Client
	queue        chan entity.Event
	drainTimeout time.Duration
}

func NewEmitter(endpoint string, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		endpoint:     endpoint,
		client:       &http.Client{Timeout: defaultTimeout},
		queue:        make(chan entity.Event, defaultQueueSize),
		drainTimeout: defaultDrainTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Emitter) Record(_ context.Context, event entity.Event) {
	select {
	case e.queue <- event:
	default:
	}
}

// Run delivers queued events until ctx is done, then drains what is left.
// Each delivery is bounded by the client timeout, not by ctx.
func (e *Emitter) Run(ctx context.Context) error {
	sendCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			e.drain()
			return nil
		case event := <-e.queue:
			e.send(sendCtx, event)
		}
	}
}

func (e *Emitter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), e.drainTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-e.queue:
			e.send(ctx, event)
		default:
			return
		}
	}
}

func (e *Emitter) send(ctx context.Context, event entity.Event) {
	body, err := json.Marshal(payload{
		Stack:   event.Stack,
		Level:   event.Level,
		Package: event.Package,
		Message: event.Message,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)
}
