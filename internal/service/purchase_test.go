package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-bot/internal/client"
	"membership-bot/internal/dto"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"
	"membership-bot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentClient struct {
	requests []*client.CreateTransactionRequest
	err      error
}

func (f *fakePaymentClient) CreateTransaction(_ context.Context, req *client.CreateTransactionRequest) (*client.CreateTransactionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &client.CreateTransactionResponse{
		Token:      "tok-" + req.OrderID,
		PaymentURL: "https://pay.example/" + req.OrderID,
	}, nil
}

type purchaseFixture struct {
	payment *fakePaymentClient
	orders  repository.OrderRepository
	subs    repository.SubscriptionRepository
	now     time.Time
	svc     *purchaseServiceImpl
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()

	db := testutil.NewDB(t)
	packages := repository.NewPackageRepository(db)
	require.NoError(t, packages.Seed(context.Background(), repository.DefaultPackages))

	f := &purchaseFixture{
		payment: &fakePaymentClient{},
		orders:  repository.NewOrderRepository(db),
		subs:    repository.NewSubscriptionRepository(db),
		now:     t0,
	}
	f.svc = NewPurchaseService(f.payment, f.orders, f.subs, packages,
		observability.NewTestMetrics(), observability.NewNopLogger(), fixedClock(&f.now)).(*purchaseServiceImpl)
	f.svc.newOrderID = func() string { return "SUB-fixed" }
	return f
}

func TestBuyNewPurchase(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)

	resp, err := f.svc.Buy(ctx, dto.BuyRequest{
		BuyerID:   "B1",
		BuyerName: "alice",
		PackageID: "warrior_6month",
		Action:    ActionNew,
		Email:     "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "SUB-fixed", resp.OrderID)
	assert.Equal(t, "https://pay.example/SUB-fixed", resp.PaymentURL)
	assert.Equal(t, int64(1499000), resp.Amount)
	assert.False(t, resp.IsRenewal)

	require.Len(t, f.payment.requests, 1)
	req := f.payment.requests[0]
	assert.Equal(t, int64(1499000), req.Amount)
	assert.Equal(t, "warrior_6month", req.ItemID)
	assert.Equal(t, "alice", req.CustomerName)

	order, err := f.orders.Take(ctx, nil, "SUB-fixed")
	require.NoError(t, err)
	assert.Equal(t, "B1", order.BuyerID)
	assert.Equal(t, 180, order.DurationDays)
	assert.False(t, order.IsRenewal)
	assert.Equal(t, "alice@example.com", order.Email)
}

func TestBuyDefaultsToNew(t *testing.T) {
	f := newPurchaseFixture(t)

	resp, err := f.svc.Buy(context.Background(), dto.BuyRequest{BuyerID: "B1", PackageID: "warrior_1month"})
	require.NoError(t, err)
	assert.False(t, resp.IsRenewal)
}

func TestBuyRenewalRequiresActiveSubscription(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)

	_, err := f.svc.Buy(ctx, dto.BuyRequest{BuyerID: "B1", PackageID: "warrior_1month", Action: ActionRenewal})
	assert.ErrorIs(t, err, ErrRenewalWithoutSubscription)
	assert.Empty(t, f.payment.requests)

	_, err = f.subs.Upsert(ctx, nil, repository.UpsertSubscriptionParams{
		BuyerID: "B1", PackageID: "warrior_1month", DurationDays: 30, OrderID: "SUB-0",
	}, t0)
	require.NoError(t, err)

	resp, err := f.svc.Buy(ctx, dto.BuyRequest{BuyerID: "B1", PackageID: "warrior_3month", Action: ActionRenewal})
	require.NoError(t, err)
	assert.True(t, resp.IsRenewal)

	order, err := f.orders.Take(ctx, nil, resp.OrderID)
	require.NoError(t, err)
	assert.True(t, order.IsRenewal)
}

func TestBuyValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   dto.BuyRequest
		field string
	}{
		{"missing buyer", dto.BuyRequest{PackageID: "warrior_1month"}, "buyer"},
		{"bad action", dto.BuyRequest{BuyerID: "B1", PackageID: "warrior_1month", Action: "upgrade"}, "action"},
		{"unknown package", dto.BuyRequest{BuyerID: "B1", PackageID: "gold_forever"}, "package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPurchaseFixture(t)

			_, err := f.svc.Buy(context.Background(), tt.req)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, f.payment.requests)
		})
	}
}

func TestBuyGatewayFailure(t *testing.T) {
	f := newPurchaseFixture(t)
	f.payment.err = client.ErrGatewayUnavailable

	_, err := f.svc.Buy(context.Background(), dto.BuyRequest{BuyerID: "B1", PackageID: "warrior_1month"})
	assert.ErrorIs(t, err, client.ErrGatewayUnavailable)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)

	_, err := f.svc.Status(ctx, "B1")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	_, err = f.subs.Upsert(ctx, nil, repository.UpsertSubscriptionParams{
		BuyerID: "B1", PackageID: "warrior_1month", DurationDays: 30, OrderID: "SUB-0",
	}, t0)
	require.NoError(t, err)

	f.now = t0.Add(days(10)).Add(time.Hour)
	status, err := f.svc.Status(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, "warrior_1month", status.PackageID)
	assert.Equal(t, 20, status.DaysLeft)

	f.now = t0.Add(days(40))
	status, err = f.svc.Status(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.DaysLeft)
}

func TestPackages(t *testing.T) {
	f := newPurchaseFixture(t)

	packages, err := f.svc.Packages(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 4)
	assert.Equal(t, "warrior_1month", packages[0].ID)
	assert.Equal(t, "warrior_12month", packages[3].ID)
}
