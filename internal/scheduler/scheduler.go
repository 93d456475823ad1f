// Package scheduler wires up the cron jobs that periodically expire stale
// quotations and invitations.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/services"
)

// Scheduler wraps robfig/cron and manages the expiry sweeps.
type Scheduler struct {
	cron        *cron.Cron
	quotations  *services.Quotation
	invitations *services.Invitation
	spec        string
}

// New creates a Scheduler that sweeps every intervalMinutes minutes.
func New(quotations *services.Quotation, invitations *services.Invitation, intervalMinutes int) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		quotations:  quotations,
		invitations: invitations,
		spec:        fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the sweep and starts the scheduler. Also runs one sweep
// immediately so a restart does not delay overdue expiries by a full tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	logger.Infof("Expiry scheduler started with spec %s", s.spec)

	go s.runSweep(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info("Expiry scheduler stopped")
}

// runSweep expires overdue quotations and invitations. Sweeps are
// idempotent: the guarded transitions only touch rows still pending.
func (s *Scheduler) runSweep(ctx context.Context) {
	now := time.Now().UTC()

	if _, err := s.quotations.ExpireSweep(ctx, now); err != nil {
		logger.Errorf("Quotation expiry sweep failed: %v", err)
	}
	if _, err := s.invitations.ExpireSweep(ctx, now); err != nil {
		logger.Errorf("Invitation expiry sweep failed: %v", err)
	}
}
