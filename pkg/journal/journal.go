// Package journal persists terminal job outcomes per realization, so the
// surrounding system can audit which realizations ran, how often they were
// resubmitted, and how they ended.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdziat/ensemble-queue/pkg/core"
	"github.com/jdziat/ensemble-queue/pkg/node"
)

// Record is one terminal outcome.
type Record struct {
	ID             string         `gorm:"primaryKey;size:36"`
	JobName        string         `gorm:"index;size:255"`
	RunPath        string         `gorm:"index;size:1024"`
	Status         core.JobStatus `gorm:"index;size:20"`
	SubmitAttempts int            `gorm:"default:0"`
	TimedOut       bool           `gorm:"default:false"`
	RuntimeSeconds float64        `gorm:"default:0"`
	FinishedAt     time.Time      `gorm:"index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

// Journal is the persistence contract for run outcomes.
type Journal interface {
	Migrate(ctx context.Context) error
	Append(ctx context.Context, rec *Record) error
	ByRunPath(ctx context.Context, runPath string) ([]Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// GormJournal implements Journal using GORM.
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal creates a new GORM-backed journal.
func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

// Migrate creates the necessary tables.
func (j *GormJournal) Migrate(ctx context.Context) error {
	return j.db.WithContext(ctx).AutoMigrate(&Record{})
}

// Append stores one terminal outcome.
func (j *GormJournal) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	return j.db.WithContext(ctx).Create(rec).Error
}

// ByRunPath returns all outcomes recorded for a run path, oldest first.
func (j *GormJournal) ByRunPath(ctx context.Context, runPath string) ([]Record, error) {
	var recs []Record
	err := j.db.WithContext(ctx).
		Where("run_path = ?", runPath).
		Order("finished_at ASC").
		Find(&recs).Error
	return recs, err
}

// Recent returns the newest outcomes, newest first.
func (j *GormJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	var recs []Record
	err := j.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// PurgeOlderThan deletes outcomes finished before now-age and reports how
// many were removed.
func (j *GormJournal) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	result := j.db.WithContext(ctx).
		Where("finished_at < ?", cutoff).
		Delete(&Record{})
	return result.RowsAffected, result.Error
}

// Hook returns a queue finish hook that appends a Record per terminal
// outcome. Append errors are logged, never propagated: journaling must
// never fail a job.
func Hook(j Journal, logger *slog.Logger) func(*node.Node, *core.JobFinished) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(_ *node.Node, e *core.JobFinished) {
		err := j.Append(context.Background(), &Record{
			JobName:        e.Name,
			RunPath:        e.RunPath,
			Status:         e.Status,
			SubmitAttempts: e.Attempts,
			TimedOut:       e.TimedOut,
			RuntimeSeconds: e.Runtime.Seconds(),
			FinishedAt:     e.Timestamp,
		})
		if err != nil {
			logger.Warn("journal append failed",
				"job", e.Name, "run_path", e.RunPath, "error", err)
		}
	}
}
