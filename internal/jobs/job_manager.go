package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	auditPruneJob *AuditPruneJob
}

// NewJobManager wires the scheduled jobs. Only the audit prune job exists;
// it stays idle when retention is disabled.
func NewJobManager(pruner AuditPruner, retention AuditRetention, logger *slog.Logger) *JobManager {
	return &JobManager{
		auditPruneJob: NewAuditPruneJob(pruner, retention, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.auditPruneJob.Start(); err != nil {
		return fmt.Errorf("failed to start audit prune job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.auditPruneJob.Stop()
}
