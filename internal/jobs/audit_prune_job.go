package jobs

import (
	"context"
	"log/slog"
	"time"

	"tradeflow/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultAuditPruneSchedule runs the prune every day at 03:00:00.
const DefaultAuditPruneSchedule = "0 0 3 * * *"

// AuditPruner is satisfied by commands.PruneAuditLogCommandHandler.
type AuditPruner interface {
	Handle(ctx context.Context, cmd commands.PruneAuditLogCommand) (int64, error)
}

// AuditRetention configures AuditPruneJob.
type AuditRetention struct {
	Retention time.Duration
	Schedule  string
}

// AuditPruneJob removes audit entries that fell out of the retention window.
type AuditPruneJob struct {
	pruner    AuditPruner
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewAuditPruneJob creates the job that deletes audit entries older than
// cfg.Retention on cfg.Schedule, a six-field cron expression with seconds.
// An empty schedule falls back to DefaultAuditPruneSchedule.
func NewAuditPruneJob(pruner AuditPruner, cfg AuditRetention, logger *slog.Logger) *AuditPruneJob {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultAuditPruneSchedule
	}
	return &AuditPruneJob{
		pruner:    pruner,
		retention: cfg.Retention,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "audit_prune_job"),
	}
}

// Enabled reports whether a retention window is configured.
func (j *AuditPruneJob) Enabled() bool {
	return j.retention > 0
}

// Start registers the schedule. A disabled job starts nothing.
func (j *AuditPruneJob) Start() error {
	if !j.Enabled() {
		j.logger.InfoContext(context.Background(), "Audit prune job disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Audit prune job started",
		"schedule", j.schedule, "retention", j.retention.String())
	return nil
}

// RunOnce prunes immediately and returns the number of deleted entries.
func (j *AuditPruneJob) RunOnce(ctx context.Context) (int64, error) {
	cmd, err := commands.NewPruneAuditLogCommand(j.retention)
	if err != nil {
		return 0, err
	}

	deleted, err := j.pruner.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Audit prune job failed", "error", err)
		return 0, err
	}
	if deleted > 0 {
		j.logger.InfoContext(ctx, "Audit entries pruned", "deleted", deleted)
	}
	return deleted, nil
}

// Stop waits for a running prune to finish.
func (j *AuditPruneJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Audit prune job stopped")
}
