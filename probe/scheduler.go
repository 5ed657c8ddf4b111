// Package probe runs an optional background upstream liveness probe on a
// cron schedule. Probe results feed logs and metrics only; the /health
// endpoint reports process health and never consults the probe.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/findata-labs/finmcp/fin"
	"github.com/findata-labs/finmcp/tool"
)

// probeEndpoint is a small reference-data call, the cheapest upstream read.
const probeEndpoint = "stock/country"

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// ParseSchedule parses a UTC-only 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, errors.New("probe: cron expression is required")
	}
	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, errors.New("probe: cron expression must be UTC-only (timezone prefixes are not allowed)")
	}
	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("probe: invalid cron expression: %w", err)
	}
	return schedule, nil
}

// SchedulerConfig configures the probe scheduler.
type SchedulerConfig struct {
	Client   *fin.Client
	CronExpr string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Scheduler issues one upstream probe per cron tick.
type Scheduler struct {
	client   *fin.Client
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a probe scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Client == nil {
		return nil, errors.New("probe: client is nil")
	}
	schedule, err := ParseSchedule(cfg.CronExpr)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Scheduler{
		client:   cfg.Client,
		schedule: schedule,
		logger:   logger,
		now:      now,
	}, nil
}

// Start begins scheduler execution. The loop ends when ctx is canceled or
// Stop is called. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("probe: scheduler is nil")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			next := s.schedule.Next(s.now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-loopCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.RunOnce(loopCtx)
			}
		}
	}()

	return nil
}

// RunOnce issues a single probe and reports the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	_, err := s.client.Get(ctx, probeEndpoint, nil)
	observation := tool.ProbeObservation{
		DurationMS: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		observation.ErrorCode = tool.ErrorCode(err, tool.CodeInternalError)
		var upstreamErr *fin.Error
		if errors.As(err, &upstreamErr) {
			observation.ErrorCode = string(upstreamErr.Kind)
		}
		s.logger.Warn("upstream probe failed", "error", err, "elapsed_ms", observation.DurationMS)
	} else {
		s.logger.Debug("upstream probe ok", "elapsed_ms", observation.DurationMS)
	}
	tool.EmitProbeObservation(observation)
}

// Stop terminates scheduler execution and waits for the loop to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
