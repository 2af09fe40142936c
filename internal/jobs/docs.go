// Package jobs provides scheduled background tasks for the trade workflow.
//
// Jobs are built on github.com/robfig/cron/v3 with second-level schedules
// and are started and stopped together through JobManager:
//
//	jobManager := jobs.NewJobManager(pruneHandler, jobs.AuditRetention{
//		Retention: 90 * 24 * time.Hour,
//		Schedule:  "0 0 3 * * *",
//	}, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// AuditPruneJob deletes audit entries older than the retention window. A
// zero retention disables it.
package jobs
