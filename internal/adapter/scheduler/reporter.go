// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

const (
	DefaultSchedule = "@hourly"

	pkgMaintenance = "maintenance"
)

type urlSummarizer interface {
	Summary(ctx context.Context) (entity.Summary, error)
}

type telemetry interface {
	Record(ctx context.Context, event entity.Event)
}

// Reporter periodically emits a summary of the URL store as a telemetry event.
type Reporter struct {
	cron      *cron.Cron
	schedule  string
	urls      urlSummarizer
	telemetry telemetry
}

func NewReporter(schedule string, urls urlSummarizer, telemetry telemetry) *Reporter {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Reporter{
		cron:      cron.New(),
		schedule:  schedule,
		urls:      urls,
		telemetry: telemetry,
	}
}

// Run schedules the report and blocks until ctx is done.
// A running report is allowed to finish before Run returns.
func (r *Reporter) Run(ctx context.Context) error {
	const op = "adapter.scheduler.Reporter.Run"

	if _, err := r.cron.AddFunc(r.schedule, func() { r.report(ctx) }); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, r.schedule, err)
	}

	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()

	return nil
}

func (r *Reporter) report(ctx context.Context) {
	s, err := r.urls.Summary(ctx)
	if err != nil {
		r.telemetry.Record(ctx, entity.NewEvent(entity.LevelError, pkgMaintenance,
			fmt.Sprintf("Store summary failed: %v", err)))
		return
	}

	r.telemetry.Record(ctx, entity.NewEvent(entity.LevelInfo, pkgMaintenance,
		fmt.Sprintf("Store summary: %d urls, %d expired, %d clicks", s.URLs, s.Expired, s.Clicks)))
}
