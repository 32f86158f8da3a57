package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lazypower/legacy/internal/clock"
	"github.com/lazypower/legacy/internal/notify"
	"github.com/lazypower/legacy/internal/store"
)

// Options configures an Engine. Zero values get defaults.
type Options struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *Metrics

	// Interval is the sweep cadence. Default 1h.
	Interval time.Duration
	// CandidateTimeout bounds delivery and commit for one principal.
	// Default 2m.
	CandidateTimeout time.Duration
	// Workers is how many candidates a cycle processes at once. Default 4.
	Workers int
	// RunOnStart runs a cycle as soon as the scheduler starts.
	RunOnStart bool
	// RequireEmailContact rejects beneficiary contacts that are not
	// email addresses. Set for the smtp provider.
	RequireEmailContact bool

	// OnSweep, when set, is called after every scheduled cycle.
	OnSweep func(SweepResult)
}

// Engine owns the inactivity detector: activity recording, settings
// updates, the notification gate and the sweep scheduler.
type Engine struct {
	DB     *store.DB
	Sender notify.Sender

	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
	opts    Options

	// sweepMu serializes cycles so a manual sweep never overlaps a
	// scheduled one.
	sweepMu sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastSweep *SweepResult
}

// New creates a new Engine.
func New(db *store.DB, sender notify.Sender, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.CandidateTimeout <= 0 {
		opts.CandidateTimeout = 2 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Engine{
		DB:      db,
		Sender:  sender,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		opts:    opts,
	}
}

// Register creates the record for a newly registered principal.
func (e *Engine) Register(id, name, email string) (*store.Principal, error) {
	if id == "" {
		return nil, &ConfigurationError{Field: "id", Reason: "required"}
	}
	p, err := e.DB.CreatePrincipal(id, name, email, e.clock.Now())
	if errors.Is(err, store.ErrExists) {
		return nil, err
	}
	if err != nil {
		return nil, &StorageError{Op: "register", Err: err}
	}
	e.logger.Info("principal registered", "principal", id)
	return p, nil
}

// RecordActivity marks an authenticated interaction by the principal.
// It stamps last activity and re-arms the detector atomically. Storage
// failures are returned so the calling interaction fails.
func (e *Engine) RecordActivity(id string) error {
	err := e.DB.RecordActivity(id, e.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err != nil {
		return &StorageError{Op: "record activity", Err: err}
	}
	e.metrics.Activity.Inc()
	return nil
}

// UpdateSettings validates and stores the principal's notification
// settings. Any accepted change re-arms the detector.
func (e *Engine) UpdateSettings(id string, s store.Settings) error {
	normalized, err := validateSettings(s, e.opts.RequireEmailContact)
	if err != nil {
		e.metrics.SettingsRejected.Inc()
		return err
	}

	err = e.DB.UpdateSettings(id, normalized, e.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err != nil {
		return &StorageError{Op: "update settings", Err: err}
	}
	e.logger.Info("notification settings updated", "principal", id, "threshold_days", normalized.ThresholdDays)
	return nil
}

// Status is the principal-facing view of the detector state.
type Status struct {
	PrincipalID         string
	Name                string
	Email               string
	ThresholdDays       int
	ThresholdSet        bool
	BeneficiaryName     string
	BeneficiaryContact  string
	BeneficiaryRelation string
	Notified            bool
	NotifiedAt          *time.Time
	LastActiveAt        *time.Time
	DaysInactive        int // -1 until the first interaction
	Eligible            bool
}

// Status returns the principal's settings (threshold defaulted) and
// notification state.
func (e *Engine) Status(id string) (*Status, error) {
	p, err := e.DB.GetPrincipal(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &StorageError{Op: "status", Err: err}
	}

	now := e.clock.Now()
	st := &Status{
		PrincipalID:         p.ID,
		Name:                p.Name,
		Email:               p.Email,
		ThresholdDays:       ThresholdDays(p),
		ThresholdSet:        p.ThresholdDays != nil,
		BeneficiaryName:     p.BeneficiaryName,
		BeneficiaryContact:  p.BeneficiaryContact,
		BeneficiaryRelation: p.BeneficiaryRelation,
		Notified:            p.Notified,
		DaysInactive:        -1,
		Eligible:            ShouldNotify(p, now),
	}
	if last, ok := p.LastActive(); ok {
		st.LastActiveAt = &last
		st.DaysInactive = ElapsedDays(last, now)
	}
	if p.NotifiedAt != nil {
		t := time.UnixMilli(*p.NotifiedAt)
		st.NotifiedAt = &t
	}
	return st, nil
}

// Deliveries returns the principal's recent delivery attempts.
func (e *Engine) Deliveries(id string, limit int) ([]store.Delivery, error) {
	if _, err := e.DB.GetPrincipal(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &StorageError{Op: "deliveries", Err: err}
	}
	ds, err := e.DB.GetDeliveries(id, limit)
	if err != nil {
		return nil, &StorageError{Op: "deliveries", Err: err}
	}
	return ds, nil
}

// Start launches the sweep scheduler. It runs until ctx is cancelled or
// Stop is called. Calling Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	// The ticker exists before Start returns so callers driving a fake
	// clock can advance right away.
	ticker := e.clock.NewTicker(e.opts.Interval)
	go e.run(ctx, ticker, e.done)

	e.logger.Info("sweep scheduler started", "interval", e.opts.Interval, "workers", e.opts.Workers)
}

// Stop cancels the scheduler and waits for it to exit. The in-flight
// cycle stops dispatching candidates; candidates already being delivered
// finish under their own timeout.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.logger.Info("sweep scheduler stopped")
}

func (e *Engine) run(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	if e.opts.RunOnStart {
		e.scheduledSweep(ctx)
	}
	for {
		select {
		case <-ticker.C:
			e.scheduledSweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// scheduledSweep runs one cycle and keeps the scheduler alive whatever
// happens inside it.
func (e *Engine) scheduledSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sweep cycle panicked", "panic", fmt.Sprint(r))
		}
	}()
	if ctx.Err() != nil {
		return
	}

	res := e.Sweep(ctx)
	if e.opts.OnSweep != nil {
		e.opts.OnSweep(res)
	}
}

// LastSweep returns the summary of the most recent cycle.
func (e *Engine) LastSweep() (SweepResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastSweep == nil {
		return SweepResult{}, false
	}
	return *e.lastSweep, true
}

func (e *Engine) setLastSweep(res SweepResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSweep = &res
}
