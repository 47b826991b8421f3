package usecase

import (
	"context"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 5, Quantity: 1}})
	b := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 5, Quantity: 1}})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // sha256 hex
}

func TestFingerprint_OrderInsensitive(t *testing.T) {
	a := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 5, Quantity: 1}})
	b := Fingerprint([]OrderLine{{ProductID: 5, Quantity: 1}, {ProductID: 1, Quantity: 2}})
	assert.Equal(t, a, b)
}

func TestFingerprint_MergesDuplicateLines(t *testing.T) {
	a := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2}})
	b := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 3}})
	assert.Equal(t, a, b)
}

func TestFingerprint_QuantityChangesHash(t *testing.T) {
	a := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 2}})
	b := Fingerprint([]OrderLine{{ProductID: 1, Quantity: 3}})
	assert.NotEqual(t, a, b)
}

func newCheckoutUsecase(s *memStore, p *stubProvider) *CheckoutUsecase {
	orders := NewOrderUsecase(s)
	return NewCheckoutUsecase(s, orders, p, zap.NewNop())
}

func TestCheckout_CreatesOrderAndIntent(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	s.addCartWithItems(10, model.CartItem{ProductID: 1, Quantity: 2})
	provider := &stubProvider{}
	uc := newCheckoutUsecase(s, provider)

	out, err := uc.Checkout(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, out.Reused)
	assert.NotEmpty(t, out.ClientSecret)
	assert.Equal(t, 1, provider.createCalls)

	o := s.orders[out.OrderID]
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, int64(1000), o.SubtotalCents)
	require.NotNil(t, o.PaymentIntentID)
	assert.NotEmpty(t, o.CheckoutFingerprint)
}

// 同じカート内容での再送は同じ注文と同じclient secretを返し、intentを作り直さない
func TestCheckout_RetrySameCartReusesOrder(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	s.addCartWithItems(10, model.CartItem{ProductID: 1, Quantity: 2})
	provider := &stubProvider{}
	uc := newCheckoutUsecase(s, provider)
	ctx := context.Background()

	first, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)
	second, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.Equal(t, 1, provider.createCalls)
	assert.Len(t, s.orders, 1)
}

// カート内容が変わったら新しい注文を作る
func TestCheckout_ChangedCartMintsNewOrder(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	cartID := s.addCartWithItems(10, model.CartItem{ProductID: 1, Quantity: 2})
	provider := &stubProvider{}
	uc := newCheckoutUsecase(s, provider)
	ctx := context.Background()

	first, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)

	s.cartItems[cartID] = []model.CartItem{{CartID: cartID, ProductID: 1, Quantity: 3}}

	second, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)

	assert.False(t, second.Reused)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, 2, provider.createCalls)
	assert.Equal(t, int64(1500), s.orders[second.OrderID].SubtotalCents)
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newMemStore()
	uc := newCheckoutUsecase(s, &stubProvider{})

	_, err := uc.Checkout(context.Background(), 10)
	assert.True(t, apperr.IsKind(err, apperr.KindCartEmpty))
}

// カートは空でも、同じ内容の進行中チェックアウトがあればそれを返す
// （注文確定後にカートが締められた後の再送に相当）
func TestCheckout_EmptyCartWithPriorCheckoutReuses(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	cartID := s.addCartWithItems(10, model.CartItem{ProductID: 1, Quantity: 2})
	provider := &stubProvider{}
	uc := newCheckoutUsecase(s, provider)
	ctx := context.Background()

	first, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)

	// カートが空になった状態を作る：fingerprintは空カートのものに変わるので、
	// 進行中注文のfingerprintも揃えておく
	s.cartItems[cartID] = nil
	o := s.orders[first.OrderID]
	o.CheckoutFingerprint = Fingerprint(nil)
	s.orders[first.OrderID] = o

	second, err := uc.Checkout(ctx, 10)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.OrderID, second.OrderID)
}

// intent作成に失敗してもPENDING注文は残り、intentは付かない
func TestCheckout_IntentCreationFailureLeavesPendingOrder(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	s.addCartWithItems(10, model.CartItem{ProductID: 1, Quantity: 2})
	provider := &stubProvider{
		failCreate: apperr.New(apperr.KindPaymentProcessorUnavailable, "processor timeout"),
	}
	uc := newCheckoutUsecase(s, provider)

	_, err := uc.Checkout(context.Background(), 10)
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentProcessorUnavailable))

	require.Len(t, s.orders, 1)
	for _, o := range s.orders {
		assert.Equal(t, model.OrderStatusPending, o.Status)
		assert.Nil(t, o.PaymentIntentID)
	}
}

func TestCheckout_Unauthorized(t *testing.T) {
	uc := newCheckoutUsecase(newMemStore(), &stubProvider{})

	_, err := uc.Checkout(context.Background(), 0)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}
