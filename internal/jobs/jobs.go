// Package jobs runs the periodic background work of the server: the pull
// refresh of every live session and the expiry of idle sessions.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nekogravitycat/booking-sync/internal/syncer"
)

const sweepSpec = "@every 1m"

type Config struct {
	// RefetchSpec is a cron spec ("*/5 * * * *", "@every 5m"); empty disables the job.
	RefetchSpec string
	// IdleTTL closes sessions unused for this long; 0 disables the sweep.
	IdleTTL time.Duration
	Logger  *log.Logger
}

type Runner struct {
	cron     *cron.Cron
	sessions *syncer.Manager
	logger   *log.Logger
	idleTTL  time.Duration
}

// New registers the configured jobs. Nothing runs until Start.
func New(sessions *syncer.Manager, cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[jobs] ", log.LstdFlags)
	}

	cronLogger := cron.PrintfLogger(logger)
	r := &Runner{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		sessions: sessions,
		logger:   logger,
		idleTTL:  cfg.IdleTTL,
	}

	if cfg.RefetchSpec != "" {
		if _, err := r.cron.AddFunc(cfg.RefetchSpec, func() { r.RefetchAll() }); err != nil {
			return nil, fmt.Errorf("invalid refetch schedule %q: %w", cfg.RefetchSpec, err)
		}
	}
	if cfg.IdleTTL > 0 {
		if _, err := r.cron.AddFunc(sweepSpec, func() { r.SweepIdle() }); err != nil {
			return nil, fmt.Errorf("register idle sweep: %w", err)
		}
	}
	return r, nil
}

func (r *Runner) Start() { r.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done.
func (r *Runner) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Printf("stopped without waiting for running jobs: %v", ctx.Err())
	}
}

// RefetchAll re-runs the full load of every live session and returns how
// many failed. Sessions closed meanwhile are not counted.
func (r *Runner) RefetchAll() int {
	failed := 0
	for _, s := range r.sessions.Sessions() {
		err := s.Refetch()
		switch {
		case err == nil, errors.Is(err, syncer.ErrSessionClosed), errors.Is(err, syncer.ErrStaleFetch):
		default:
			failed++
			r.logger.Printf("refetch session %s (owner %s): %v", s.ID, s.OwnerID, err)
		}
	}
	return failed
}

// SweepIdle closes sessions not used within the idle TTL.
func (r *Runner) SweepIdle() int {
	if r.idleTTL <= 0 {
		return 0
	}
	n := r.sessions.CloseIdle(r.idleTTL)
	if n > 0 {
		r.logger.Printf("closed %d idle sessions", n)
	}
	return n
}
