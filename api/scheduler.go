/*
scheduler.go - Automated arrears reminder sweep

PURPOSE:
  Periodically scans fee records for unpaid overage bills past the
  payment deadline and sends reminders automatically, so colleges in
  arrears hear about it without the asset office clicking through every
  record.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects open records with a positive cost once the billing deadline
    has passed
  - Reminders are idempotent: re-sweeping an already-reminded record is
    a no-op, so the sweep can run as often as it likes
  - Reminder sends are recorded in the audit trail like manual ones

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)
  - Now: Clock function, injectable for tests (default: today, UTC)

USAGE:
  sweep := NewArrearsSweep(feeService)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - fee/arrears.go: The arrears definition the sweep mirrors
  - handlers.go: RemindFee endpoint (manual reminders)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/fee"
)

// ArrearsSweep sends automatic payment reminders for overdue bills.
type ArrearsSweep struct {
	Fees          *fee.Service
	CheckInterval time.Duration
	Enabled       bool
	Now           func() core.Date

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewArrearsSweep creates a new sweep over the given fee service.
func NewArrearsSweep(fees *fee.Service) *ArrearsSweep {
	return &ArrearsSweep{
		Fees:          fees,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           func() core.Date { return core.DateOf(time.Now().UTC()) },
	}
}

// Start begins the background sweep loop.
func (s *ArrearsSweep) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[ArrearsSweep] Disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan bool)
	s.wg.Add(1)

	go s.run()

	log.Printf("[ArrearsSweep] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the sweep loop and waits for it to finish.
func (s *ArrearsSweep) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		log.Println("[ArrearsSweep] Stopped")
	}
}

func (s *ArrearsSweep) run() {
	defer s.wg.Done()

	// Run immediately on start so overdue bills do not wait a full interval
	s.RunOnce(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.RunOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunOnce performs a single sweep: every open record with a positive cost
// gets a reminder once the payment deadline has passed. Returns the number
// of reminders sent; records already carrying one are skipped.
func (s *ArrearsSweep) RunOnce(ctx context.Context) int {
	now := s.Now()
	deadline := s.Fees.Rules.Snapshot().Billing.PaymentDeadline
	if !now.After(deadline) {
		return 0
	}

	records, err := s.Fees.Records.List(ctx)
	if err != nil {
		log.Printf("[ArrearsSweep] Error listing fee records: %v", err)
		return 0
	}

	sent := 0
	for _, rec := range records {
		if rec.Status.Terminal() || !rec.ExcessCost.IsPositive() || rec.HasReminder {
			continue
		}
		if _, err := s.Fees.Apply(ctx, rec.ID, fee.ActionRemind, "scheduler", core.RoleAssetAdmin, now); err != nil {
			log.Printf("[ArrearsSweep] Error reminding %s: %v", rec.ID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("[ArrearsSweep] Sent %d reminder(s)", sent)
	}
	return sent
}
