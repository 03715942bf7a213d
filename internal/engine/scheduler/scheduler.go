package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/service"
	"second-order-engine/pkg/logger"
	"second-order-engine/pkg/utils"
)

// Scheduler drives the engine from its two tick sources: a cron entry for
// the daily cycle and an interval ticker for intraday market data.
type Scheduler struct {
	cfg    *config.Config
	logger *logger.Logger
	engine *service.Engine

	cron   *cron.Cron
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg *config.Config, log *logger.Logger, engine *service.Engine) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		logger: log,
		engine: engine,
		cron:   cron.New(),
		done:   make(chan struct{}),
	}
}

// Start registers the daily cron entry and launches the intraday polling
// loop. It returns once both are running.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.cron.AddFunc(s.cfg.Engine.DailyTickSpec, func() {
		utils.GoSafe(func() {
			s.engine.RunDailyCycle(ctx)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to register daily tick: %w", err)
	}
	s.cron.Start()

	go s.pollLoop(ctx)

	s.logger.Info("Scheduler started",
		logger.StringField("daily_tick_spec", s.cfg.Engine.DailyTickSpec),
		logger.Field("data_poll_interval", s.cfg.Engine.DataPollInterval))
	return nil
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Engine.DataPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			utils.GoSafe(func() {
				s.engine.OnMarketData(ctx)
			})
		}
	}
}

// Stop halts the cron entries and the polling loop and waits for them to
// wind down.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	<-s.done
	s.logger.Info("Scheduler stopped")
}
