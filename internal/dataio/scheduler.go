package dataio

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/logging"
)

const exportTimeout = 5 * time.Minute

// Exporter is the part of Service the scheduler drives.
type Exporter interface {
	ExportAll(ctx context.Context, dir string) (Summary, error)
}

// Scheduler runs ExportAll on a cron schedule with a seconds field,
// e.g. "0 0 2 * * *" for 02:00 every day.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler registers the export job. It does not start it.
func NewScheduler(exp Exporter, dir, spec string, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		ctx = logging.WithContext(ctx, log.With(zap.String("job", "export")))

		start := time.Now()
		if _, err := exp.ExportAll(ctx, dir); err != nil {
			log.Error("scheduled export failed", zap.Error(err))
			return
		}
		log.Info("scheduled export finished", zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_SCHEDULE %q: %w", spec, err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("export scheduler started")
}

// Stop stops scheduling and waits for a running export until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("export still running at shutdown")
	}
}
