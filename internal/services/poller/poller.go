// Package poller runs the check cycle on a fixed interval.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/heidi/internal/services/checker"
	"github.com/robfig/cron/v3"
)

// ReportHook receives the outcome of every finished cycle.
type ReportHook func(report *checker.Report, err error)

// Poller schedules check cycles. At most one cycle runs at a time.
type Poller struct {
	log      *slog.Logger
	checker  checker.Interface
	interval time.Duration
	hooks    []ReportHook

	cron *cron.Cron
	wg   sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithReportHook registers a hook called after every cycle.
func WithReportHook(hook ReportHook) Option {
	return func(p *Poller) { p.hooks = append(p.hooks, hook) }
}

func New(log *slog.Logger, chk checker.Interface, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{log: log, checker: chk, interval: interval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs one cycle right away and then one per interval until Stop is called.
// Cycles use ctx, so cancelling it aborts a cycle in flight.
func (p *Poller) Start(ctx context.Context) {
	logger := cronLogger{log: p.log.With("component", "cron")}

	p.cron = cron.New(cron.WithLogger(logger))
	job := p.wrap(ctx, logger)
	p.cron.Schedule(cron.Every(p.interval), job)

	p.log.Info("Poller is starting...", "interval", p.interval)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		job.Run()
	}()

	p.cron.Start()
}

// Stop halts the schedule and waits for a running cycle to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.wg.Wait()
	p.log.Info("Poller is stopped...")
}

// Run starts the poller and blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Start(ctx)
	<-ctx.Done()
	p.Stop()
}

func (p *Poller) wrap(ctx context.Context, logger cron.Logger) cron.Job {
	return cron.NewChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	).Then(cron.FuncJob(func() { p.runCycle(ctx) }))
}

func (p *Poller) runCycle(ctx context.Context) {
	const opn = "poller.runCycle"
	log := p.log.With("op", opn)

	if ctx.Err() != nil {
		log.Debug("Context cancelled, skipping cycle")
		return
	}

	report, err := p.checker.CheckForUpdates(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Check cycle failed", "error", err)
	}

	for _, hook := range p.hooks {
		hook(report, err)
	}
}

// cronLogger adapts slog to the cron logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.log.Warn("Previous cycle still running, skipping tick")
		return
	}
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
