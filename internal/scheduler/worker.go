package scheduler

import (
	"context"

	"github.com/hibiken/asynq"

	"breed_site_backend/internal/notifications/service"
	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
)

// Worker consumes the maintenance tasks and runs them against the
// notification dispatcher.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher *service.Dispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, dispatcher *service.Dispatcher, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server:     server,
		mux:        asynq.NewServeMux(),
		dispatcher: dispatcher,
		log:        log,
	}
	w.mux.HandleFunc(TaskNotificationRetrySweep, w.handleRetrySweep)
	w.mux.HandleFunc(TaskNotificationPurge, w.handlePurge)

	return w, nil
}

func (w *Worker) handleRetrySweep(ctx context.Context, task *asynq.Task) error {
	_, _, err := w.dispatcher.RetrySweep(ctx)
	return err
}

func (w *Worker) handlePurge(ctx context.Context, task *asynq.Task) error {
	_, err := w.dispatcher.Purge(ctx)
	return err
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("notification sweep worker stopped", "error", err)
	}
}
