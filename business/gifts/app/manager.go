package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/stars"
)

// ErrRunActive is returned by Start while another run is still live.
var ErrRunActive = apperror.New(apperror.CodeRunActive)

// Run is the handle of one acquisition run. The handle stays valid
// after the run terminates; Stop on a finished run is a no-op.
type Run struct {
	ID     string
	Config RunConfig

	sniper *Sniper
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}

	mu     sync.Mutex
	result Result
}

// Done is closed when the run has terminated and Result is final.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Result returns the terminal result. Zero until Done is closed.
func (r *Run) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// State returns the run's current phase.
func (r *Run) State() State {
	return r.sniper.State()
}

func (r *Run) finish(res Result) {
	r.mu.Lock()
	r.result = res
	r.mu.Unlock()
	close(r.done)
}

// Manager owns the run registry. At most one run is live at a time;
// the registry tracks it by handle rather than by goroutine liveness,
// so a crashed loop never wedges the slot.
type Manager struct {
	dialer   Dialer
	reporter Reporter
	logger   logger.LoggerInterface

	mu     sync.Mutex
	active *Run
}

// NewManager creates a run Manager.
func NewManager(dialer Dialer, reporter Reporter, log logger.LoggerInterface) *Manager {
	return &Manager{
		dialer:   dialer,
		reporter: reporter,
		logger:   log,
	}
}

// Start validates cfg, registers a new run and launches its loop on a
// dedicated goroutine. Returns ErrRunActive while a previous run is
// still live. Never blocks on the loop itself.
func (m *Manager) Start(ctx context.Context, cfg RunConfig) (*Run, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		select {
		case <-m.active.done:
			// Previous run terminated, slot is free.
		default:
			return nil, ErrRunActive
		}
	}

	platform, err := m.dialer.Dial(cfg.Session)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:     uuid.NewString(),
		Config: cfg,
		sniper: NewSniper(platform, m.reporter, cfg, m.logger),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.active = run

	m.logger.Info(ctx, "run started",
		"run_id", run.ID,
		"recipient", cfg.Recipient,
		"max_price_stars", cfg.MaxPriceStars,
		"poll_interval", cfg.PollInterval.String())
	m.reporter.Report("Run started")

	go func() {
		defer cancel()
		res := run.sniper.Run(runCtx)
		run.finish(res)
		m.logger.Info(context.Background(), "run finished",
			"run_id", run.ID, "outcome", string(res.Outcome))
	}()

	return run, nil
}

// Stop requests cancellation of the run. Idempotent; safe on a nil
// handle and on runs that already terminated. Does not wait for the
// loop to unwind.
func (m *Manager) Stop(run *Run) {
	if run == nil {
		return
	}
	run.once.Do(func() {
		m.logger.Info(context.Background(), "run stop requested", "run_id", run.ID)
		run.cancel()
	})
}

// Active returns the currently registered run, or nil. A terminated run
// stays visible until the next Start replaces it.
func (m *Manager) Active() *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CheckBalance reads the Stars balance on a short-lived session of its
// own. Runs concurrently with an active run without touching its session.
func (m *Manager) CheckBalance(ctx context.Context, session string) (stars.Amount, error) {
	if session == "" {
		session = RunConfig{}.Normalized().Session
	}

	platform, err := m.dialer.Dial(session)
	if err != nil {
		return stars.Zero(), err
	}
	if err := platform.Open(ctx); err != nil {
		return stars.Zero(), err
	}
	defer platform.Close(ctx)

	balance, err := platform.StarsBalance(ctx)
	if err != nil {
		return stars.Zero(), err
	}

	m.reporter.ReportBalance(balance)
	return balance, nil
}
