package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/logger"
)

// State is the observable phase of an acquisition run.
type State string

const (
	StateIdle               State = "idle"
	StateAuthenticating     State = "authenticating"
	StatePollingCatalog     State = "polling_catalog"
	StateEvaluatingOffers   State = "evaluating_offers"
	StateVerifyingBalance   State = "verifying_balance"
	StateAttemptingPurchase State = "attempting_purchase"
	StateDone               State = "done"
)

// Outcome is the terminal disposition of a run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeError     Outcome = "error"
)

// Result is the terminal state of a finished run.
type Result struct {
	Outcome Outcome
	Receipt *domain.Receipt
	Err     error
}

// Sniper runs the acquisition loop: poll the catalog, filter offers,
// buy the first affordable one, stop. One Sniper serves one run.
type Sniper struct {
	platform Platform
	reporter Reporter
	config   RunConfig
	logger   logger.LoggerInterface

	mu    sync.RWMutex
	state State

	polls       metric.Int64Counter
	notModified metric.Int64Counter
	fetchErrors metric.Int64Counter
	attempts    metric.Int64Counter
	purchases   metric.Int64Counter
}

// NewSniper creates a Sniper for one run.
func NewSniper(platform Platform, reporter Reporter, cfg RunConfig, log logger.LoggerInterface) *Sniper {
	meter := otel.GetMeterProvider().Meter("gifts_sniper")

	polls, _ := meter.Int64Counter("gift_catalog_polls_total",
		metric.WithDescription("Total catalog poll requests"))
	notModified, _ := meter.Int64Counter("gift_catalog_not_modified_total",
		metric.WithDescription("Catalog polls answered not-modified"))
	fetchErrors, _ := meter.Int64Counter("gift_fetch_errors_total",
		metric.WithDescription("Transient catalog/balance fetch failures"))
	attempts, _ := meter.Int64Counter("gift_purchase_attempts_total",
		metric.WithDescription("Purchase attempts started"))
	purchases, _ := meter.Int64Counter("gift_purchases_total",
		metric.WithDescription("Completed purchases"))

	return &Sniper{
		platform:    platform,
		reporter:    reporter,
		config:      cfg,
		logger:      log,
		state:       StateIdle,
		polls:       polls,
		notModified: notModified,
		fetchErrors: fetchErrors,
		attempts:    attempts,
		purchases:   purchases,
	}
}

// State returns the current run phase.
func (s *Sniper) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Sniper) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.reporter.UpdateRunState(state)
}

// Run executes the acquisition loop until a purchase completes, ctx is
// cancelled, or a non-retryable error occurs. Blocking; callers run it
// on a dedicated goroutine.
func (s *Sniper) Run(ctx context.Context) Result {
	defer s.setState(StateDone)

	s.setState(StateAuthenticating)
	if err := s.platform.Open(ctx); err != nil {
		return s.fail(ctx, err)
	}
	defer s.platform.Close(context.Background())

	peer, err := s.platform.ResolveRecipient(ctx, s.config.Recipient)
	if err != nil {
		return s.fail(ctx, err)
	}
	if peer.Username != "" {
		s.reporter.Report(fmt.Sprintf("Sending gifts to @%s", peer.Username))
	} else {
		s.reporter.Report(fmt.Sprintf("Sending gifts to peer %d", peer.ID))
	}

	// Initial balance readout. Doubles as a session probe; a failure
	// here is transient and the loop proceeds to polling.
	if balance, err := s.platform.StarsBalance(ctx); err != nil {
		if ctx.Err() != nil {
			return s.cancelled()
		}
		s.fetchErrors.Add(ctx, 1)
		s.reporter.Report(fmt.Sprintf("Balance check failed: %s", userMessage(err)))
		s.logger.Warn(ctx, "balance fetch failed", "error", err)
	} else {
		s.reporter.ReportBalance(balance)
	}

	var hash int64

	for {
		if ctx.Err() != nil {
			return s.cancelled()
		}

		s.setState(StatePollingCatalog)
		page, unchanged, err := s.platform.StarGifts(ctx, hash)
		s.polls.Add(ctx, 1)
		if err != nil {
			if ctx.Err() != nil {
				return s.cancelled()
			}
			if apperror.IsCode(err, apperror.CodeAuthRequired) {
				return s.fail(ctx, err)
			}
			s.fetchErrors.Add(ctx, 1)
			s.reporter.Report(fmt.Sprintf("Catalog fetch failed: %s", userMessage(err)))
			s.logger.Warn(ctx, "catalog fetch failed", "error", err)
			if !s.wait(ctx) {
				return s.cancelled()
			}
			continue
		}
		if unchanged {
			s.notModified.Add(ctx, 1)
			s.logger.Debug(ctx, "catalog unchanged", "hash", hash)
			if !s.wait(ctx) {
				return s.cancelled()
			}
			continue
		}
		if len(page.Gifts) == 0 {
			if !s.wait(ctx) {
				return s.cancelled()
			}
			continue
		}
		hash = page.Hash

		s.setState(StateEvaluatingOffers)
		candidates := domain.Eligible(page.Gifts, s.config.Ceiling())
		s.logger.Debug(ctx, "catalog evaluated",
			"gifts", len(page.Gifts), "eligible", len(candidates), "hash", hash)
		if len(candidates) == 0 {
			if !s.wait(ctx) {
				return s.cancelled()
			}
			continue
		}

		result, done := s.tryCandidates(ctx, peer, candidates)
		if done {
			return result
		}

		if !s.wait(ctx) {
			return s.cancelled()
		}
	}
}

// tryCandidates works through the eligible gifts cheapest first. The
// second return is true when the run is over (purchase or cancellation);
// false sends the loop back to polling after the standard wait.
func (s *Sniper) tryCandidates(ctx context.Context, peer domain.Peer, candidates []domain.Gift) (Result, bool) {
	for _, g := range candidates {
		if ctx.Err() != nil {
			return s.cancelled(), true
		}

		s.setState(StateVerifyingBalance)
		balance, err := s.platform.StarsBalance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return s.cancelled(), true
			}
			// Without a trustworthy balance no candidate can be gated;
			// abandon the batch and re-poll after the standard wait.
			s.fetchErrors.Add(ctx, 1)
			s.reporter.Report(fmt.Sprintf("Balance check failed: %s", userMessage(err)))
			s.logger.Warn(ctx, "balance fetch failed", "error", err)
			return Result{}, false
		}

		if balance.LessThan(g.Price) {
			s.reporter.Report(fmt.Sprintf("Skipping %q (%s Stars): balance %s insufficient",
				g.Title, g.Price, balance))
			continue
		}

		s.setState(StateAttemptingPurchase)
		s.attempts.Add(ctx, 1)

		form, err := s.platform.PaymentForm(ctx, peer, g.ID)
		if err != nil {
			s.reporter.Report(fmt.Sprintf("Payment form for %q failed: %s", g.Title, userMessage(err)))
			s.logger.Warn(ctx, "payment form failed", "gift_id", g.ID, "error", err)
			continue
		}
		if !form.Payable() {
			s.reporter.Report(fmt.Sprintf("Unexpected payment form type for %q, skipping", g.Title))
			s.logger.Warn(ctx, "unexpected payment form kind", "gift_id", g.ID, "kind", form.Kind)
			continue
		}

		// Past this point the payment may already be in flight; it is
		// allowed to complete even if cancellation arrives now.
		receipt, err := s.platform.SubmitForm(ctx, form)
		if err != nil {
			s.reporter.Report(fmt.Sprintf("Purchase of %q failed: %s", g.Title, userMessage(err)))
			s.logger.Warn(ctx, "purchase failed", "gift_id", g.ID, "error", err)
			continue
		}

		s.purchases.Add(ctx, 1)
		s.reporter.ReportPurchase(receipt)
		s.reporter.Report(fmt.Sprintf("Bought gift %d for %s Stars", receipt.GiftID, receipt.Price))
		s.logger.Info(ctx, "gift purchased", "gift_id", receipt.GiftID, "price", receipt.Price.String())
		return Result{Outcome: OutcomeSuccess, Receipt: &receipt}, true
	}

	return Result{}, false
}

// wait blocks for one poll interval. Returns false when ctx was
// cancelled before the interval elapsed.
func (s *Sniper) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.config.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Sniper) cancelled() Result {
	s.reporter.Report("Run stopped")
	return Result{Outcome: OutcomeCancelled}
}

func (s *Sniper) fail(ctx context.Context, err error) Result {
	if ctx.Err() != nil {
		return s.cancelled()
	}
	if apperror.IsCode(err, apperror.CodeAuthRequired) {
		s.reporter.Report("Session is not authorized: log in once interactively, then restart the run")
	} else {
		s.reporter.Report(fmt.Sprintf("Run failed: %s", userMessage(err)))
	}
	s.logger.Error(ctx, "run failed", "error", err)
	return Result{Outcome: OutcomeError, Err: err}
}

func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return err.Error()
}
