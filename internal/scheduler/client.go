package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
)

// Scheduler enqueues the maintenance tasks on their fixed schedules.
type Scheduler struct {
	scheduler *asynq.Scheduler
	queue     string
	log       *logger.Logger
}

func NewScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*Scheduler, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Scheduler{
		scheduler: asynq.NewScheduler(opt, nil),
		queue:     queue,
		log:       log,
	}, nil
}

// Run registers the periodic entries and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.scheduler.Register(retrySweepSchedule, newRetrySweepTask(), asynq.Queue(s.queue)); err != nil {
		return fmt.Errorf("register retry sweep: %w", err)
	}
	if _, err := s.scheduler.Register(purgeSchedule, newPurgeTask(), asynq.Queue(s.queue)); err != nil {
		return fmt.Errorf("register purge: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.scheduler.Shutdown()
	}()

	s.log.Info("notification sweep scheduler running",
		"retry", retrySweepSchedule, "purge", purgeSchedule)
	return s.scheduler.Run()
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
