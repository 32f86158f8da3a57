package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/legacy/internal/notify"
	"github.com/lazypower/legacy/internal/store"
)

// SweepResult summarizes one sweep cycle.
type SweepResult struct {
	CycleID          string
	StartedAt        time.Time
	Duration         time.Duration
	Candidates       int
	Fired            int
	DeliveryFailures int // candidates left armed because a send failed
	Conflicts        int // commits lost to concurrent activity or settings changes
	Errors           int // storage errors and recovered panics
	Skipped          int // candidates not dispatched before cancellation
}

type outcome int

const (
	outcomeIdle outcome = iota
	outcomeFired
	outcomeDeliveryFailed
	outcomeConflict
	outcomeError
)

func (r *SweepResult) record(o outcome) {
	switch o {
	case outcomeFired:
		r.Fired++
	case outcomeDeliveryFailed:
		r.DeliveryFailures++
	case outcomeConflict:
		r.Conflicts++
	case outcomeError:
		r.Errors++
	}
}

// Sweep runs one inactivity check over every candidate principal.
//
// Candidates are processed independently by a bounded worker pool. A
// failure on one candidate never aborts the cycle; it only leaves that
// principal armed for the next cycle. Cancelling ctx stops dispatching
// new candidates; those already in flight finish.
func (e *Engine) Sweep(ctx context.Context) SweepResult {
	e.sweepMu.Lock()
	defer e.sweepMu.Unlock()

	res := SweepResult{
		CycleID:   uuid.NewString(),
		StartedAt: e.clock.Now(),
	}
	log := e.logger.With("cycle", res.CycleID)

	candidates, err := e.DB.ListCandidates()
	if err != nil {
		log.Error("sweep: load candidates", "err", &StorageError{Op: "list candidates", Err: err})
		res.Errors++
		e.finishSweep(&res)
		return res
	}
	res.Candidates = len(candidates)
	e.metrics.Candidates.Add(float64(len(candidates)))

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan store.Principal)
	)
	workers := min(e.opts.Workers, len(candidates))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				o := e.processCandidate(ctx, res.CycleID, p)
				mu.Lock()
				res.record(o)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i, p := range candidates {
		if ctx.Err() != nil {
			res.Skipped = len(candidates) - i
			break
		}
		select {
		case <-ctx.Done():
			res.Skipped = len(candidates) - i
			break dispatch
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	e.finishSweep(&res)
	if res.Fired > 0 || res.DeliveryFailures > 0 || res.Conflicts > 0 || res.Errors > 0 || res.Skipped > 0 {
		log.Info("sweep finished",
			"candidates", res.Candidates, "fired", res.Fired,
			"delivery_failures", res.DeliveryFailures, "conflicts", res.Conflicts,
			"errors", res.Errors, "skipped", res.Skipped)
	} else {
		log.Debug("sweep finished", "candidates", res.Candidates)
	}
	return res
}

func (e *Engine) finishSweep(res *SweepResult) {
	res.Duration = e.clock.Now().Sub(res.StartedAt)
	e.metrics.Cycles.Inc()
	e.metrics.CycleDuration.Observe(res.Duration.Seconds())
	e.setLastSweep(*res)
}

// processCandidate evaluates the gate for one principal and, if it
// fires, delivers both messages and commits the episode. Panics are
// contained here so one bad record cannot take down the cycle.
func (e *Engine) processCandidate(ctx context.Context, cycleID string, p store.Principal) (o outcome) {
	log := e.logger.With("cycle", cycleID, "principal", p.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("sweep: candidate panicked", "panic", fmt.Sprint(r))
			e.metrics.CandidateErrors.Inc()
			o = outcomeError
		}
	}()

	if !ShouldNotify(&p, e.clock.Now()) {
		return outcomeIdle
	}

	// In-flight candidates are allowed to finish after cancellation so
	// an episode is never cut between its two sends.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.CandidateTimeout)
	defer cancel()

	ep := episodeFor(&p)
	sends := []struct {
		role string
		msg  notify.Message
	}{
		{store.RoleBeneficiary, notify.BeneficiaryMessage(ep)},
		{store.RolePrincipal, notify.PrincipalMessage(ep)},
	}

	failed := false
	for _, s := range sends {
		err := e.Sender.Send(cctx, s.msg)
		e.logDelivery(cycleID, p.ID, s.role, s.msg, err)
		if err != nil {
			failed = true
			derr := &DeliveryError{PrincipalID: p.ID, Role: s.role, Recipient: s.msg.To, Err: err}
			log.Warn("sweep: delivery failed, will retry next cycle", "role", s.role, "err", derr)
			e.metrics.DeliveryFailures.WithLabelValues(s.role).Inc()
		}
	}
	if failed {
		return outcomeDeliveryFailed
	}

	err := e.DB.MarkNotified(p.ID, p.Version, e.clock.Now())
	switch {
	case err == nil:
		e.metrics.Fired.Inc()
		log.Info("sweep: episode notified", "threshold_days", ep.ThresholdDays)
		return outcomeFired
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		// Activity or a settings change landed while we were sending.
		// The fresher state wins.
		e.metrics.Conflicts.Inc()
		log.Info("sweep: principal changed during delivery, commit discarded")
		return outcomeConflict
	default:
		e.metrics.CandidateErrors.Inc()
		log.Error("sweep: commit episode", "err", &StorageError{Op: "mark notified", Err: err})
		return outcomeError
	}
}

func (e *Engine) logDelivery(cycleID, principalID, role string, msg notify.Message, sendErr error) {
	d := &store.Delivery{
		PrincipalID: principalID,
		CycleID:     cycleID,
		Role:        role,
		Recipient:   msg.To,
		Subject:     msg.Subject,
		Status:      store.DeliverySent,
	}
	if sendErr != nil {
		d.Status = store.DeliveryFailed
		d.Error = sendErr.Error()
	}
	if err := e.DB.AddDelivery(d, e.clock.Now()); err != nil {
		e.logger.Warn("sweep: record delivery attempt", "principal", principalID, "err", err)
	}
}

func episodeFor(p *store.Principal) notify.Episode {
	email := p.Email
	if email == "" {
		email = p.ID
	}
	return notify.Episode{
		PrincipalName:       p.Name,
		PrincipalEmail:      email,
		BeneficiaryName:     p.BeneficiaryName,
		BeneficiaryContact:  p.BeneficiaryContact,
		BeneficiaryRelation: p.BeneficiaryRelation,
		ThresholdDays:       ThresholdDays(p),
	}
}
