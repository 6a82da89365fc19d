package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"membership-bot/internal/event"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"
	"membership-bot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []event.ExpirySoon
	failOn map[string]bool
}

func (f *fakeNotifier) NotifyExpirySoon(_ context.Context, ev event.ExpirySoon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[ev.BuyerID] {
		return errors.New("dm closed")
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeNotifier) buyers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, ev := range f.sent {
		ids = append(ids, ev.BuyerID)
	}
	return ids
}

func seedWindow(t *testing.T, repo repository.SubscriptionRepository, buyerID string, start time.Time) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), nil, repository.UpsertSubscriptionParams{
		BuyerID:      buyerID,
		PackageID:    "warrior_1month",
		DurationDays: 30,
		OrderID:      "SUB-" + buyerID,
	}, start)
	require.NoError(t, err)
}

func TestExpiryRunOnce(t *testing.T) {
	ctx := context.Background()
	subs := repository.NewSubscriptionRepository(testutil.NewDB(t))

	// now is 17:00 on 1 March local time, so the notice day is 4 March local time
	now := t0
	// ends 12:00 on 4 March local time
	seedWindow(t, subs, "B1", time.Date(2026, 2, 2, 5, 0, 0, 0, time.UTC))
	// ends 22:00 on 4 March local time
	seedWindow(t, subs, "B2", time.Date(2026, 2, 2, 15, 0, 0, 0, time.UTC))
	// ends 01:00 on 5 March local time
	seedWindow(t, subs, "B3", time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC))

	notifier := &fakeNotifier{failOn: map[string]bool{"B2": true}}
	svc := NewExpiryService(subs, notifier, 3, wib, observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&now))

	notified, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"B1"}, notifier.buyers())

	// a second run on the same day skips B1 and picks B2 up again
	notifier.failOn = nil
	notified, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"B1", "B2"}, notifier.buyers())

	notified, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, notified)
}

func TestExpiryFailedNoticeIsNotRepeatedNextDay(t *testing.T) {
	ctx := context.Background()
	subs := repository.NewSubscriptionRepository(testutil.NewDB(t))
	now := t0
	// ends 12:00 on 4 March local time
	seedWindow(t, subs, "B1", time.Date(2026, 2, 2, 5, 0, 0, 0, time.UTC))

	notifier := &fakeNotifier{failOn: map[string]bool{"B1": true}}
	svc := NewExpiryService(subs, notifier, 3, wib, observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&now))

	notified, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, notified)

	// the next scheduled cycle looks at 5 March, so B1 has left the notice day
	notifier.failOn = nil
	now = t0.Add(days(1))
	notified, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, notified)
	assert.Empty(t, notifier.buyers())

	expiring, err := subs.ListExpiringAt(ctx, t0, t0.Add(days(30)), true)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.False(t, expiring[0].NotifiedExpirySoon, "failed notice stays unmarked")
}

func TestExpiryRenewalResetsNotice(t *testing.T) {
	ctx := context.Background()
	subs := repository.NewSubscriptionRepository(testutil.NewDB(t))
	now := t0
	seedWindow(t, subs, "B1", time.Date(2026, 2, 2, 5, 0, 0, 0, time.UTC))

	notifier := &fakeNotifier{}
	svc := NewExpiryService(subs, notifier, 3, wib, observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&now))

	_, err := svc.RunOnce(ctx)
	require.NoError(t, err)

	_, err = subs.Upsert(ctx, nil, repository.UpsertSubscriptionParams{
		BuyerID: "B1", PackageID: "warrior_1month", DurationDays: 30, OrderID: "SUB-renew", IsRenewal: true,
	}, now)
	require.NoError(t, err)

	// 30 days later the renewed window enters its notice day
	now = t0.Add(days(30))
	notified, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"B1", "B1"}, notifier.buyers())
}

func TestExpiryStartRunsImmediately(t *testing.T) {
	subs := repository.NewSubscriptionRepository(testutil.NewDB(t))
	now := t0
	seedWindow(t, subs, "B1", time.Date(2026, 2, 2, 5, 0, 0, 0, time.UTC))

	notifier := &fakeNotifier{}
	svc := NewExpiryService(subs, notifier, 3, wib, observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&now))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx, "@every 24h") }()

	assert.Eventually(t, func() bool { return len(notifier.buyers()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expiry poller did not stop")
	}
}

func TestExpiryStartBadSchedule(t *testing.T) {
	subs := repository.NewSubscriptionRepository(testutil.NewDB(t))
	now := t0
	svc := NewExpiryService(subs, &fakeNotifier{}, 3, wib, observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&now))

	err := svc.Start(context.Background(), "not a schedule")
	assert.Error(t, err)
}
