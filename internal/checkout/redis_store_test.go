package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/payment"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*checkout.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := checkout.NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)

	amount := decimal.RequireFromString("270.00")
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	in := &checkout.Session{
		ID:              "sess-1",
		Step:            checkout.StepPayment,
		Shipping:        details(),
		Quantity:        3,
		Amount:          &amount,
		PaymentState:    payment.StateAwaitingAuthorization,
		AuthorizationID: "PAYPAL-A",
		ApproveURL:      "https://paypal.test/approve/PAYPAL-A",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, store.Save(ctx, in))
	assert.True(t, mr.Exists("checkout:session:sess-1"))
	assert.Equal(t, time.Hour, mr.TTL("checkout:session:sess-1"))

	out, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, out.Amount)
	assert.True(t, amount.Equal(*out.Amount))
	assert.Equal(t, "270.00", out.Amount.StringFixed(2))
	assert.Equal(t, payment.StateAwaitingAuthorization, out.PaymentState)
	assert.Equal(t, checkout.StepPayment, out.Step)
	assert.Equal(t, details(), out.Shipping)
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, "PAYPAL-A", out.AuthorizationID)
	assert.True(t, created.Equal(out.CreatedAt))

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestRedisStore_MissingSession(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	require.NoError(t, store.Save(ctx, &checkout.Session{ID: "s1", Step: checkout.StepShipping}))
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestRedisStore_SaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	s := &checkout.Session{ID: "s1", Step: checkout.StepShipping}
	require.NoError(t, store.Save(ctx, s))
	mr.FastForward(45 * time.Second)
	require.NoError(t, store.Save(ctx, s))
	mr.FastForward(45 * time.Second)

	_, err := store.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("checkout:session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, checkout.ErrSessionNotFound)
	assert.Contains(t, err.Error(), "failed to decode checkout session")
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := checkout.NewRedisStore(context.Background(), "redis://"+addr, time.Minute)
	assert.Error(t, err)

	_, err = checkout.NewRedisStore(context.Background(), "://bad", time.Minute)
	assert.Error(t, err)
}
