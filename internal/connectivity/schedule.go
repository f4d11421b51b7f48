package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const probeTimeout = 10 * time.Second

// Schedule runs a Probe on a cron expression until stopped.
type Schedule struct {
	cron   *cron.Cron
	cancel context.CancelFunc
}

// StartSchedule validates spec and starts ticking probe on it. Descriptors
// such as "@every 30s" are accepted.
func StartSchedule(ctx context.Context, spec string, probe *Probe, logger *zap.Logger) (*Schedule, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cronLogger{logger: logger.Sugar()}
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	runCtx, cancel := context.WithCancel(ctx)
	_, err := c.AddFunc(spec, func() {
		tickCtx, tickCancel := context.WithTimeout(runCtx, probeTimeout)
		defer tickCancel()
		probe.Tick(tickCtx)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid probe schedule %q: %w", spec, err)
	}

	c.Start()
	logger.Info("connectivity probe scheduled", zap.String("schedule", spec))
	return &Schedule{cron: c, cancel: cancel}, nil
}

// Stop halts the schedule and waits for a running tick to return.
func (s *Schedule) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
