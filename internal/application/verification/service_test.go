package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/kv"
	"github.com/portal-auth/internal/pkg/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingNotifier records dispatched codes and can be told to fail.
type capturingNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (n *capturingNotifier) Send(_ context.Context, _ domain.Identity, codeStr string, _ domain.Purpose, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, codeStr)
	return nil
}

func (n *capturingNotifier) last(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

func (n *capturingNotifier) setFail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

type codeScenario struct {
	svc      Service
	notifier *capturingNotifier
	clock    *fakeClock
}

func newCodeScenario(t *testing.T) *codeScenario {
	t.Helper()
	clk := newFakeClock()
	store := kv.NewMemoryStoreWithClock(clk.Now)
	limiter := NewRateLimiter(store, 60*time.Second, 3).WithClock(clk.Now)
	notifier := &capturingNotifier{}
	svc := NewService(NewCodeStore(store), limiter, notifier, code.DefaultPolicy, 5*time.Minute)
	return &codeScenario{svc: svc, notifier: notifier, clock: clk}
}

var alice = domain.Identity{Username: "alice", UserID: "u-1"}

func TestSendThenVerify_OnceOnly(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	sent := s.notifier.last(t)
	assert.Len(t, sent, code.DefaultPolicy.Length)

	assert.True(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, sent))
	// Consumed on first success; the same code never verifies twice.
	assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, sent))
}

func TestVerify_WrongGuessDoesNotBurnCode(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	sent := s.notifier.last(t)

	assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, "000000x"))
	assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, ""))
	assert.True(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, sent))
}

func TestVerify_PurposesAreIsolated(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	sent := s.notifier.last(t)

	assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeResetPassword, sent))
	assert.True(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, sent))
}

func TestSend_ResendOverwritesPriorCode(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	first := s.notifier.last(t)

	s.clock.Advance(61 * time.Second)
	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	second := s.notifier.last(t)

	if first != second {
		assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, first))
	}
	assert.True(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, second))
}

func TestSend_CooldownWindow(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))

	s.clock.Advance(30 * time.Second)
	err := s.svc.Send(ctx, alice, domain.PurposeLogin)
	assert.ErrorIs(t, err, domain.ErrCooldownActive)

	s.clock.Advance(31 * time.Second)
	assert.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
}

func TestSend_DailyQuotaThenRollover(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
		s.clock.Advance(61 * time.Second)
	}

	err := s.svc.Send(ctx, alice, domain.PurposeLogin)
	assert.ErrorIs(t, err, domain.ErrDailyQuotaExceeded)

	// Quota is keyed by calendar date; cross midnight and it resets.
	s.clock.Advance(13 * time.Hour)
	assert.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
}

func TestSend_QuotaIsPerIdentity(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()
	bob := domain.Identity{Username: "bob", UserID: "u-2"}

	for i := 0; i < 3; i++ {
		require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
		s.clock.Advance(61 * time.Second)
	}
	require.ErrorIs(t, s.svc.Send(ctx, alice, domain.PurposeLogin), domain.ErrDailyQuotaExceeded)

	assert.NoError(t, s.svc.Send(ctx, bob, domain.PurposeLogin))
}

func TestSend_UnknownPurposeRejected(t *testing.T) {
	s := newCodeScenario(t)

	err := s.svc.Send(context.Background(), alice, domain.Purpose("unlock"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSend_DispatchFailureLeavesCodeAndFreesCooldown(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	s.notifier.setFail(errors.New("smtp: connection refused"))
	err := s.svc.Send(ctx, alice, domain.PurposeLogin)
	require.ErrorIs(t, err, domain.ErrNotificationFailed)

	// The cooldown claim was released, so the retry is immediate.
	s.notifier.setFail(nil)
	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	assert.True(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, s.notifier.last(t)))
}

func TestSend_FailedDispatchDoesNotCountAgainstQuota(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	s.notifier.setFail(errors.New("sns throttled"))
	for i := 0; i < 5; i++ {
		require.ErrorIs(t, s.svc.Send(ctx, alice, domain.PurposeLogin), domain.ErrNotificationFailed)
	}

	s.notifier.setFail(nil)
	assert.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
}

func TestVerify_ConcurrentAttemptsSingleSuccess(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	sent := s.notifier.last(t)

	const n = 32
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.svc.Verify(ctx, alice, domain.PurposeLogin, sent)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestVerify_CodeExpires(t *testing.T) {
	s := newCodeScenario(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Send(ctx, alice, domain.PurposeLogin))
	sent := s.notifier.last(t)

	s.clock.Advance(6 * time.Minute)
	assert.False(t, s.svc.Verify(ctx, alice, domain.PurposeLogin, sent))
}
