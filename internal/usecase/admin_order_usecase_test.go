package usecase

import (
	"context"
	"strings"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminSetStatus_HappyPath(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)

	out, err := uc.SetStatus(context.Background(), orderID, AdminSetStatusInput{Status: "PAID"})
	require.NoError(t, err)
	assert.Equal(t, "PAID", out.Status)
	require.NotNil(t, out.PaidAt)

	events := s.eventsFor(orderID)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventSourceAdmin, events[1].Source)
	assert.Nil(t, events[1].Reason)
}

func TestAdminSetStatus_CaseInsensitiveInput(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)

	out, err := uc.SetStatus(context.Background(), orderID, AdminSetStatusInput{Status: " paid "})
	require.NoError(t, err)
	assert.Equal(t, "PAID", out.Status)
}

// 同一ステータス指定は成功だがイベントは増やさない
func TestAdminSetStatus_SameStatusIsNoop(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)

	out, err := uc.SetStatus(context.Background(), orderID, AdminSetStatusInput{Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", out.Status)
	assert.Len(t, s.eventsFor(orderID), 1)
}

func TestAdminSetStatus_InvalidTransition(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)
	ctx := context.Background()

	// PENDING→SHIPPEDは飛ばせない
	_, err := uc.SetStatus(ctx, orderID, AdminSetStatusInput{Status: "SHIPPED"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidStatusTransition))
	assert.Equal(t, model.OrderStatusPending, s.orders[orderID].Status)
	assert.Len(t, s.eventsFor(orderID), 1)
}

func TestAdminSetStatus_UnknownStatus(t *testing.T) {
	uc := NewAdminOrderUsecase(newMemStore())

	_, err := uc.SetStatus(context.Background(), 1, AdminSetStatusInput{Status: "REFUNDED"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdminSetStatus_ReasonTooLong(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)

	_, err := uc.SetStatus(context.Background(), orderID, AdminSetStatusInput{
		Status: "CANCELED",
		Reason: strings.Repeat("x", 501),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, model.OrderStatusPending, s.orders[orderID].Status)
}

func TestAdminSetStatus_ReasonRecorded(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)

	_, err := uc.SetStatus(context.Background(), orderID, AdminSetStatusInput{
		Status: "CANCELED",
		Reason: "out of stock",
	})
	require.NoError(t, err)

	events := s.eventsFor(orderID)
	require.Len(t, events, 2)
	require.NotNil(t, events[1].Reason)
	assert.Equal(t, "out of stock", *events[1].Reason)
}

func TestAdminSetStatus_NotFound(t *testing.T) {
	uc := NewAdminOrderUsecase(newMemStore())

	_, err := uc.SetStatus(context.Background(), 999, AdminSetStatusInput{Status: "PAID"})
	assert.True(t, apperr.IsKind(err, apperr.KindOrderNotFound))
}

// 初回到達タイムスタンプは一度だけセットされ、再到達で上書きされない
func TestAdminSetStatus_FirstTouchTimestampIsStable(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)
	ctx := context.Background()

	_, err := uc.SetStatus(ctx, orderID, AdminSetStatusInput{Status: "PAID"})
	require.NoError(t, err)
	paidAt := s.orders[orderID].PaidAt
	require.NotNil(t, paidAt)

	// CANCELEDを経由してもPaidAtは当時のまま
	_, err = uc.SetStatus(ctx, orderID, AdminSetStatusInput{Status: "CANCELED"})
	require.NoError(t, err)
	assert.Equal(t, paidAt, s.orders[orderID].PaidAt)
}

func TestAdminList_FiltersByStatusAndUser(t *testing.T) {
	s := newMemStore()
	first := seedPendingOrder(t, s, 10, "pi_1")
	second := seedPendingOrder(t, s, 20, "pi_2")
	uc := NewAdminOrderUsecase(s)
	ctx := context.Background()

	_, err := uc.SetStatus(ctx, second, AdminSetStatusInput{Status: "PAID"})
	require.NoError(t, err)

	outs, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "PAID"})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, second, outs[0].ID)

	userID := int64(10)
	outs, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, UserID: &userID})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, first, outs[0].ID)
}

func TestAdminList_Validation(t *testing.T) {
	uc := NewAdminOrderUsecase(newMemStore())
	ctx := context.Background()

	_, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 1000})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdminGetTimeline(t *testing.T) {
	s := newMemStore()
	orderID := seedPendingOrder(t, s, 10, "pi_1")
	uc := NewAdminOrderUsecase(s)
	ctx := context.Background()

	_, err := uc.SetStatus(ctx, orderID, AdminSetStatusInput{Status: "PAID"})
	require.NoError(t, err)

	events, err := uc.GetTimeline(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "PENDING", events[0].ToStatus)
	assert.Equal(t, "PAID", events[1].ToStatus)

	_, err = uc.GetTimeline(ctx, 999)
	assert.True(t, apperr.IsKind(err, apperr.KindOrderNotFound))
}
