package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor purges old journal records on a cron schedule.
type Janitor struct {
	journal   Journal
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewJanitor creates a janitor that keeps records younger than retention.
func NewJanitor(j Journal, retention time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		journal:   j,
		retention: retention,
		logger:    logger,
	}
}

// Start schedules the purge with a cron expression (e.g. "0 3 * * *").
func (jn *Janitor) Start(schedule string) error {
	jn.cron = cron.New()
	_, err := jn.cron.AddFunc(schedule, jn.purge)
	if err != nil {
		return err
	}
	jn.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (jn *Janitor) Stop() {
	if jn.cron != nil {
		<-jn.cron.Stop().Done()
	}
}

func (jn *Janitor) purge() {
	removed, err := jn.journal.PurgeOlderThan(context.Background(), jn.retention)
	if err != nil {
		jn.logger.Error("journal purge failed", "error", err)
		return
	}
	if removed > 0 {
		jn.logger.Info("journal purged", "removed", removed, "retention", jn.retention)
	}
}
