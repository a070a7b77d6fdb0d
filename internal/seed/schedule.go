package seed

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler repeats seeding passes on a cron spec such as "@every 6h".
// A pass still running when the next tick fires is not overlapped.
type Scheduler struct {
	cron         *cron.Cron
	seeder       *Seeder
	spec         string
	minVacancies int
	logger       zerolog.Logger
	onResult     func(Result, error)
}

func NewScheduler(seeder *Seeder, spec string, minVacancies int, logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:         cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		seeder:       seeder,
		spec:         spec,
		minVacancies: minVacancies,
		logger:       logger,
	}
}

// OnResult registers a callback invoked after every pass.
func (s *Scheduler) OnResult(fn func(Result, error)) {
	s.onResult = fn
}

// Run performs one pass immediately, then keeps seeding on schedule until ctx
// is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.pass(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.pass(ctx)

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("seed schedule started")

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info().Msg("seed schedule stopped")
	return nil
}

func (s *Scheduler) pass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.seeder.Run(ctx, s.minVacancies)
	if err != nil {
		s.logger.Error().Err(err).Msg("seed pass failed")
	} else {
		s.logger.Info().Int("vacancies", result.Vacancies).Int("employers", len(result.Employers)).Msg("seed pass complete")
	}
	if s.onResult != nil {
		s.onResult(result, err)
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron " + msg)
}
