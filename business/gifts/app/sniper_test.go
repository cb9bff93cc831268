package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/stars"
)

// fakePlatform scripts platform responses for loop tests.
type fakePlatform struct {
	mu sync.Mutex

	openErr    error
	resolveErr error
	peer       domain.Peer

	balanceFn func(call int) (stars.Amount, error)
	giftsFn   func(call int, hash int64) (domain.CatalogPage, bool, error)
	formFn    func(call int, giftID int64) (domain.PaymentForm, error)
	submitFn  func(call int, form domain.PaymentForm) (domain.Receipt, error)

	openCalls    int
	closeCalls   int
	balanceCalls int
	giftsCalls   int
	formCalls    int
	submitCalls  int
	seenHashes   []int64
}

func (f *fakePlatform) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	return f.openErr
}

func (f *fakePlatform) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakePlatform) ResolveRecipient(ctx context.Context, recipient string) (domain.Peer, error) {
	if f.resolveErr != nil {
		return domain.Peer{}, f.resolveErr
	}
	return f.peer, nil
}

func (f *fakePlatform) StarsBalance(ctx context.Context) (stars.Amount, error) {
	f.mu.Lock()
	f.balanceCalls++
	call := f.balanceCalls
	f.mu.Unlock()
	if f.balanceFn == nil {
		return stars.Zero(), nil
	}
	return f.balanceFn(call)
}

func (f *fakePlatform) StarGifts(ctx context.Context, hash int64) (domain.CatalogPage, bool, error) {
	f.mu.Lock()
	f.giftsCalls++
	call := f.giftsCalls
	f.seenHashes = append(f.seenHashes, hash)
	f.mu.Unlock()
	if f.giftsFn == nil {
		return domain.CatalogPage{}, false, nil
	}
	return f.giftsFn(call, hash)
}

func (f *fakePlatform) PaymentForm(ctx context.Context, peer domain.Peer, giftID int64) (domain.PaymentForm, error) {
	f.mu.Lock()
	f.formCalls++
	call := f.formCalls
	f.mu.Unlock()
	if f.formFn == nil {
		return domain.PaymentForm{ID: giftID, Kind: domain.FormKindStarGift, GiftID: giftID, Peer: peer}, nil
	}
	return f.formFn(call, giftID)
}

func (f *fakePlatform) SubmitForm(ctx context.Context, form domain.PaymentForm) (domain.Receipt, error) {
	f.mu.Lock()
	f.submitCalls++
	call := f.submitCalls
	f.mu.Unlock()
	if f.submitFn == nil {
		return domain.Receipt{FormID: form.ID, GiftID: form.GiftID, Price: form.Price}, nil
	}
	return f.submitFn(call, form)
}

// fakeReporter records sink lines, balances and state transitions.
type fakeReporter struct {
	mu       sync.Mutex
	lines    []string
	balances []stars.Amount
	states   []State
}

func (r *fakeReporter) Start(ctx context.Context) error { return nil }
func (r *fakeReporter) Report(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}
func (r *fakeReporter) ReportBalance(b stars.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances = append(r.balances, b)
}
func (r *fakeReporter) ReportPurchase(domain.Receipt)       {}
func (r *fakeReporter) UpdateConnectionStatus(string, bool) {}
func (r *fakeReporter) UpdateRunState(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}
func (r *fakeReporter) Stop() error { return nil }

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testConfig() RunConfig {
	return RunConfig{
		Session:       "test.session",
		Recipient:     "me",
		MaxPriceStars: 500,
		PollInterval:  10 * time.Millisecond,
	}
}

func limitedGift(id, price int64) domain.Gift {
	return domain.Gift{ID: id, Title: "gift", Price: stars.FromInt64(price), Limited: true}
}

func TestSniper_BuysCheapestAffordableGift(t *testing.T) {
	// Catalog has 100 and 300 under a 500 ceiling; balance 250 affords
	// only the cheapest. Exactly one purchase, then the run ends.
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1, Username: "me"},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 7, Gifts: []domain.Gift{
				limitedGift(2, 300),
				limitedGift(1, 100),
			}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(250), nil
		},
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s (err: %v)", res.Outcome, OutcomeSuccess, res.Err)
	}
	if res.Receipt == nil || res.Receipt.GiftID != 1 {
		t.Fatalf("Receipt = %+v, want purchase of gift 1", res.Receipt)
	}
	if platform.submitCalls != 1 {
		t.Errorf("SubmitForm called %d times, want 1", platform.submitCalls)
	}
	if platform.closeCalls != 1 {
		t.Errorf("Close called %d times, want 1", platform.closeCalls)
	}
}

func TestSniper_SkipsWhenBalanceInsufficient(t *testing.T) {
	// Gift at 100 with balance 50: skipped, no attempt, loop keeps polling.
	done := make(chan struct{})
	var once sync.Once
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: int64(call), Gifts: []domain.Gift{limitedGift(1, 100)}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			// Call 1 is the post-auth readout, call 2 gates the first
			// candidate; call 3 proves the loop re-polled.
			if call >= 3 {
				once.Do(func() { close(done) })
			}
			return stars.FromInt64(50), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())

	resCh := make(chan Result, 1)
	go func() { resCh <- sniper.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not keep polling after insufficient balance")
	}
	cancel()

	res := <-resCh
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeCancelled)
	}
	if platform.submitCalls != 0 {
		t.Errorf("SubmitForm called %d times, want 0", platform.submitCalls)
	}
}

func TestSniper_BalanceEqualToPriceIsSufficient(t *testing.T) {
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{limitedGift(1, 200)}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(200), nil
		},
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeSuccess)
	}
}

func TestSniper_NotModifiedKeepsHashAndSkipsEvaluation(t *testing.T) {
	// First poll adopts hash 42; two not-modified answers follow. The
	// loop must resend 42 unchanged and never touch the balance.
	done := make(chan struct{})
	var once sync.Once
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			if call == 1 {
				// Catalog content is all ineligible so nothing is bought.
				return domain.CatalogPage{Hash: 42, Gifts: []domain.Gift{
					{ID: 1, Title: "unlimited", Price: stars.FromInt64(10)},
				}}, false, nil
			}
			if call >= 3 {
				once.Do(func() { close(done) })
			}
			return domain.CatalogPage{}, true, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())

	resCh := make(chan Result, 1)
	go func() { resCh <- sniper.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not keep polling through not-modified answers")
	}
	cancel()
	<-resCh

	platform.mu.Lock()
	defer platform.mu.Unlock()
	if platform.seenHashes[0] != 0 {
		t.Errorf("first poll hash = %d, want 0", platform.seenHashes[0])
	}
	for i, h := range platform.seenHashes[1:3] {
		if h != 42 {
			t.Errorf("poll %d hash = %d, want 42", i+2, h)
		}
	}
	if platform.balanceCalls != 1 {
		t.Errorf("balance checked %d times, want only the post-auth readout", platform.balanceCalls)
	}
}

func TestSniper_ReportsBalanceAfterAuth(t *testing.T) {
	// The run reads and reports the balance right after authenticating,
	// before the first catalog poll.
	reporter := &fakeReporter{}
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{limitedGift(1, 100)}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(250), nil
		},
	}

	sniper := NewSniper(platform, reporter, testConfig(), testLogger())
	res := sniper.Run(context.Background())
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s (err: %v)", res.Outcome, OutcomeSuccess, res.Err)
	}

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.balances) == 0 {
		t.Fatal("no balance readout reported during the run")
	}
	if got := reporter.balances[0].String(); got != "250" {
		t.Errorf("first balance readout = %s, want 250", got)
	}
}

func TestSniper_BalanceReadoutFailureIsTransient(t *testing.T) {
	// A failed post-auth readout must not end the run; polling proceeds
	// and the purchase still happens.
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{limitedGift(1, 100)}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			if call == 1 {
				return stars.Zero(), apperror.New(apperror.CodeBalanceFetchFailed)
			}
			return stars.FromInt64(250), nil
		},
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s (err: %v)", res.Outcome, OutcomeSuccess, res.Err)
	}
}

func TestSniper_CancellationInterruptsWait(t *testing.T) {
	// With a 5s interval, cancellation during the wait must end the run
	// well before the interval elapses.
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{}, true, nil
		},
	}

	cfg := testConfig()
	cfg.PollInterval = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	sniper := NewSniper(platform, &fakeReporter{}, cfg, testLogger())

	resCh := make(chan Result, 1)
	go func() { resCh <- sniper.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // let the loop reach its wait
	start := time.Now()
	cancel()

	select {
	case res := <-resCh:
		if res.Outcome != OutcomeCancelled {
			t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeCancelled)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("cancellation took %s, want well under the 5s interval", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestSniper_AuthRequiredEndsRun(t *testing.T) {
	platform := &fakePlatform{
		openErr: apperror.New(apperror.CodeAuthRequired),
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())

	if res.Outcome != OutcomeError {
		t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeError)
	}
	if !apperror.IsCode(res.Err, apperror.CodeAuthRequired) {
		t.Errorf("Err code = %s, want %s", apperror.GetCode(res.Err), apperror.CodeAuthRequired)
	}
	if platform.giftsCalls != 0 {
		t.Errorf("catalog polled %d times after auth failure, want 0", platform.giftsCalls)
	}
}

func TestSniper_FormFailureMovesToNextCandidate(t *testing.T) {
	// Form request fails for the cheapest gift; the run continues with
	// the next candidate instead of terminating.
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{
				limitedGift(1, 100),
				limitedGift(2, 300),
			}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(400), nil
		},
		formFn: func(call int, giftID int64) (domain.PaymentForm, error) {
			if giftID == 1 {
				return domain.PaymentForm{}, apperror.New(apperror.CodePaymentFormFailed)
			}
			return domain.PaymentForm{ID: 9, Kind: domain.FormKindStarGift, GiftID: giftID, Price: stars.FromInt64(300)}, nil
		},
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s (err: %v)", res.Outcome, OutcomeSuccess, res.Err)
	}
	if res.Receipt.GiftID != 2 {
		t.Errorf("bought gift %d, want 2", res.Receipt.GiftID)
	}
}

func TestSniper_UnexpectedFormKindIsSkipped(t *testing.T) {
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{
				limitedGift(1, 100),
				limitedGift(2, 200),
			}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(400), nil
		},
		formFn: func(call int, giftID int64) (domain.PaymentForm, error) {
			kind := domain.FormKindStarGift
			if giftID == 1 {
				kind = domain.FormKindInvoice
			}
			return domain.PaymentForm{ID: giftID, Kind: kind, GiftID: giftID}, nil
		},
	}

	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())
	res := sniper.Run(context.Background())

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeSuccess)
	}
	if res.Receipt.GiftID != 2 {
		t.Errorf("bought gift %d, want 2", res.Receipt.GiftID)
	}
	if platform.submitCalls != 1 {
		t.Errorf("SubmitForm called %d times, want 1", platform.submitCalls)
	}
}

func TestSniper_FreshBalanceBeforeEachCandidate(t *testing.T) {
	// Three eligible gifts, none affordable: the balance must be
	// re-read for every candidate, never cached.
	polled := make(chan struct{})
	var once sync.Once
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			if call >= 2 {
				once.Do(func() { close(polled) })
			}
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{
				limitedGift(1, 100),
				limitedGift(2, 200),
				limitedGift(3, 300),
			}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(10), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	sniper := NewSniper(platform, &fakeReporter{}, testConfig(), testLogger())

	resCh := make(chan Result, 1)
	go func() { resCh <- sniper.Run(ctx) }()

	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not complete a candidate pass")
	}
	cancel()
	<-resCh

	platform.mu.Lock()
	defer platform.mu.Unlock()
	if platform.balanceCalls < 3 {
		t.Errorf("balance read %d times, want one read per candidate (>= 3)", platform.balanceCalls)
	}
}

func TestSniper_StateTransitions(t *testing.T) {
	reporter := &fakeReporter{}
	platform := &fakePlatform{
		peer: domain.Peer{ID: 1},
		giftsFn: func(call int, hash int64) (domain.CatalogPage, bool, error) {
			return domain.CatalogPage{Hash: 1, Gifts: []domain.Gift{limitedGift(1, 100)}}, false, nil
		},
		balanceFn: func(call int) (stars.Amount, error) {
			return stars.FromInt64(500), nil
		},
	}

	sniper := NewSniper(platform, reporter, testConfig(), testLogger())
	res := sniper.Run(context.Background())
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s", res.Outcome, OutcomeSuccess)
	}

	want := []State{
		StateAuthenticating,
		StatePollingCatalog,
		StateEvaluatingOffers,
		StateVerifyingBalance,
		StateAttemptingPurchase,
		StateDone,
	}
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.states) != len(want) {
		t.Fatalf("states = %v, want %v", reporter.states, want)
	}
	for i, s := range want {
		if reporter.states[i] != s {
			t.Errorf("state[%d] = %s, want %s", i, reporter.states[i], s)
		}
	}
}
