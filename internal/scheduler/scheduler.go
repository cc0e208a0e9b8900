package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-reporter/internal/analysis"
	"crypto-reporter/internal/config"
	"crypto-reporter/internal/database"
	"crypto-reporter/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context) models.Snapshot
}

type ReportWriter interface {
	Write(snapshot models.Snapshot, result *models.AnalysisResult, dest string) error
}

// Scheduler runs fetch → analyze → report cycles one after another until
// its context is cancelled.
type Scheduler struct {
	reportPath string
	interval   time.Duration
	schedule   cron.Schedule

	fetcher  Fetcher
	writer   ReportWriter
	recorder database.Recorder
	log      *zap.SugaredLogger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu      sync.RWMutex
	lastRun *models.CycleRun
	latest  *models.AnalysisResult
}

func New(cfg *config.Config, fetcher Fetcher, writer ReportWriter, recorder database.Recorder, log *zap.SugaredLogger) (*Scheduler, error) {
	s := &Scheduler{
		reportPath: cfg.ReportPath,
		interval:   cfg.Interval,
		fetcher:    fetcher,
		writer:     writer,
		recorder:   recorder,
		log:        log,
		now:        time.Now,
		after:      time.After,
	}
	if cfg.Schedule != "" {
		schedule, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
		}
		s.schedule = schedule
	}
	return s, nil
}

// Run executes cycles until ctx is done. Every cycle, successful or not, is
// followed by the same wait; there is no backoff.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return ctx.Err()
		case <-s.after(s.nextDelay(s.now())):
		}
	}
}

// RunOnce executes a single cycle and returns its outcome. An empty fetch
// skips the analysis and leaves the report file untouched.
func (s *Scheduler) RunOnce(ctx context.Context) models.CycleRun {
	run := models.CycleRun{
		StartedAt:  s.now(),
		ReportPath: s.reportPath,
	}

	s.log.Info("Fetching data...")
	snapshot := s.fetcher.Fetch(ctx)
	run.AssetCount = len(snapshot)
	if len(snapshot) == 0 {
		run.Status = models.CycleStatusSkipped
		s.log.Infof("No data fetched. Retrying in %s...", s.describeWait())
		return s.finish(ctx, run, nil)
	}

	s.log.Info("Analyzing data...")
	result, err := analysis.Analyze(snapshot)
	if err != nil {
		run.Status = models.CycleStatusFailed
		run.Error = err.Error()
		s.log.Errorf("Analysis failed: %v. Retrying in %s...", err, s.describeWait())
		return s.finish(ctx, run, nil)
	}
	if result.PricedAssets > 0 {
		run.AveragePrice = models.Float64(result.AveragePrice)
	}

	s.log.Info("Updating Excel...")
	if err := s.writer.Write(snapshot, result, s.reportPath); err != nil {
		run.Status = models.CycleStatusFailed
		run.Error = err.Error()
		s.log.Errorf("Excel update failed: %v. Retrying in %s...", err, s.describeWait())
		return s.finish(ctx, run, nil)
	}

	run.Status = models.CycleStatusOK
	s.log.Infof("Excel updated. Waiting %s...", s.describeWait())
	return s.finish(ctx, run, result)
}

func (s *Scheduler) finish(ctx context.Context, run models.CycleRun, result *models.AnalysisResult) models.CycleRun {
	run.FinishedAt = s.now()

	if s.recorder != nil {
		// record even when ctx was cancelled mid-cycle
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		if err := s.recorder.RecordCycle(recordCtx, &run); err != nil {
			s.log.Warnf("Failed to record cycle: %v", err)
		}
		cancel()
	}

	s.mu.Lock()
	s.lastRun = &run
	if result != nil {
		s.latest = result
	}
	s.mu.Unlock()

	s.log.Debugw("cycle finished",
		"status", run.Status,
		"assets", run.AssetCount,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run
}

// LastRun returns the outcome of the most recent cycle.
func (s *Scheduler) LastRun() (models.CycleRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return models.CycleRun{}, false
	}
	return *s.lastRun, true
}

// LatestAnalysis returns the analysis behind the report currently on disk.
func (s *Scheduler) LatestAnalysis() (*models.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

func (s *Scheduler) ReportPath() string {
	return s.reportPath
}

func (s *Scheduler) nextDelay(now time.Time) time.Duration {
	if s.schedule == nil {
		return s.interval
	}
	if d := s.schedule.Next(now).Sub(now); d > 0 {
		return d
	}
	return 0
}

func (s *Scheduler) describeWait() string {
	return describeDuration(s.nextDelay(s.now()))
}

// describeDuration renders whole minutes and seconds the way the status
// lines have always read ("5 minutes"), anything else as a Go duration.
func describeDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	case d >= time.Second && d%time.Second == 0:
		return plural(int(d/time.Second), "second")
	default:
		return d.Round(time.Second).String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
