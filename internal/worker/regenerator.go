// Package worker периодически дозаполняет слоты активных определений.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Generator — то, что умеет пройтись по активным определениям.
type Generator interface {
	GenerateActive(ctx context.Context, asOf time.Time) (int64, error)
}

// Regenerator запускает генерацию по cron-расписанию.
// Если предыдущий проход ещё идёт, очередной пропускается.
type Regenerator struct {
	cron      *cron.Cron
	generator Generator
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	// runCtx задаётся в Run до старта cron; проходы по расписанию
	// отменяются вместе с ним.
	runCtx context.Context
}

type Option func(*Regenerator)

// WithTimeout ограничивает длительность одного прохода.
func WithTimeout(d time.Duration) Option {
	return func(r *Regenerator) { r.timeout = d }
}

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(r *Regenerator) { r.now = now }
}

func NewRegenerator(spec string, generator Generator, logger zerolog.Logger, opts ...Option) (*Regenerator, error) {
	r := &Regenerator{
		generator: generator,
		timeout:   10 * time.Minute,
		now:       time.Now,
		logger:    logger.With().Str("component", "regenerator").Logger(),
		runCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{r.logger}),
		cron.SkipIfStillRunning(cronLogger{r.logger}),
	))
	if _, err := r.cron.AddFunc(spec, func() { r.RunOnce(r.runCtx) }); err != nil {
		return nil, fmt.Errorf("parse regenerate schedule %q: %w", spec, err)
	}
	return r, nil
}

// RunOnce выполняет один проход синхронно.
func (r *Regenerator) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	created, err := r.generator.GenerateActive(ctx, r.now())
	ev := r.logger.Info()
	if err != nil {
		ev = r.logger.Error().Err(err)
	}
	ev.Int64("created", created).Dur("took", time.Since(started)).Msg("regeneration pass finished")
}

// Run крутит планировщик до отмены ctx и ждёт завершения текущего прохода.
func (r *Regenerator) Run(ctx context.Context) error {
	r.runCtx = ctx
	r.cron.Start()
	r.logger.Info().Msg("regenerator started")

	<-ctx.Done()
	stopped := r.cron.Stop()
	<-stopped.Done()

	r.logger.Info().Msg("regenerator stopped")
	return nil
}

// cronLogger пробрасывает логи cron в zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
