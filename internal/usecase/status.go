package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

const maxReasonLength = 500

// applyTransition はロック済みの注文に1回の遷移を適用する。
// ステータス更新・updated_at・初回到達タイムスタンプ・監査イベントを
// 同じトランザクションで書く。同一ステータスはここに来る前に弾くこと。
func applyTransition(
	ctx context.Context,
	r repo.TxRepos,
	o *model.Order,
	next model.OrderStatus,
	source model.EventSource,
	reason *string,
	metadata map[string]string,
) error {
	from := o.Status

	if !model.CanTransition(from, next) {
		return apperr.New(
			apperr.KindInvalidStatusTransition,
			fmt.Sprintf("cannot transition order from %s to %s", from, next),
		)
	}

	now := time.Now()
	o.Status = next
	o.UpdatedAt = now

	// 初回到達時だけセット。二度目以降の同状態到達では触らない。
	switch next {
	case model.OrderStatusPaid:
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
	case model.OrderStatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case model.OrderStatusCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	}

	if err := r.Orders().Save(ctx, *o); err != nil {
		return err
	}

	return r.OrderStatusEvents().Create(ctx, model.OrderStatusEvent{
		OrderID:    o.ID,
		FromStatus: &from,
		ToStatus:   next,
		Reason:     reason,
		Source:     source,
		Metadata:   encodeMetadata(metadata),
		CreatedAt:  now,
	})
}

// bindIntent はロック済みの注文へintent IDを冪等に割り当てる。
// 既に同じIDなら何もしない。別のIDが居たら衝突。
// 戻り値は「保存が必要になったか」。
func bindIntent(o *model.Order, intentID string) (bool, error) {
	if o.PaymentIntentID == nil {
		o.PaymentIntentID = &intentID
		return true, nil
	}
	if *o.PaymentIntentID == intentID {
		return false, nil
	}
	return false, apperr.New(
		apperr.KindPaymentIntentConflict,
		fmt.Sprintf("order %d is already bound to another payment intent", o.ID),
	)
}

func encodeMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}
