package telemetry

import (
	"context"

	"github.com/vadimbarashkov/snaplink/internal/entity"
)

type Recorder interface {
	Record(ctx context.Context, event entity.Event)
}

// Multi fans every event out to each recorder in order. A nil Multi discards events.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, event entity.Event) {
	for _, r := range m {
		r.Record(ctx, event)
	}
}
