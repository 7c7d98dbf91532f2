// Package scheduler runs the periodic notification maintenance sweeps over
// asynq: the retry sweep re-attempts failed notifications and the purge
// sweep enforces the log retention window.
package scheduler

import (
	"github.com/hibiken/asynq"
)

const (
	TaskNotificationRetrySweep = "notifications:retry_sweep"
	TaskNotificationPurge      = "notifications:purge"
)

// Sweep intervals. The retry sweep runs often enough that a transient
// provider outage delays delivery by minutes, not hours; the purge sweep is
// a daily housekeeping job.
const (
	retrySweepSchedule = "@every 15m"
	purgeSchedule      = "@every 24h"
)

func newRetrySweepTask() *asynq.Task {
	return asynq.NewTask(TaskNotificationRetrySweep, nil)
}

func newPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskNotificationPurge, nil)
}
