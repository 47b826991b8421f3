package usecase

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

// プロセッサから届くイベント種別
const (
	EventTypeIntentSucceeded = "payment_intent.succeeded"
	EventTypeIntentFailed    = "payment_intent.payment_failed"
	EventTypeIntentCanceled  = "payment_intent.canceled"
)

// PaymentEvent は署名検証・パース済みのwebhookイベント。
type PaymentEvent struct {
	ID       string
	Type     string
	IntentID string
	OrderID  int64

	// 失敗・キャンセル理由（payload由来、無ければ空）
	Reason string
}

type WebhookUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewWebhookUsecase(tx repo.TransactionManager, logger *zap.Logger) *WebhookUsecase {
	return &WebhookUsecase{tx: tx, logger: logger}
}

// HandleEvent はイベント種別を目標ステータスへ写して適用する。
// at-least-once配送が前提なので、同じイベントが何度来ても安全。
func (u *WebhookUsecase) HandleEvent(ctx context.Context, ev PaymentEvent) error {
	meta := map[string]string{
		"event_type": ev.Type,
		"event_id":   ev.ID,
	}

	switch ev.Type {
	case EventTypeIntentSucceeded:
		return u.MarkPaid(ctx, ev.OrderID, ev.IntentID, meta)
	case EventTypeIntentFailed, EventTypeIntentCanceled:
		return u.MarkCancelled(ctx, ev.OrderID, ev.IntentID, ev.Reason, meta)
	default:
		// 知らない種別は握りつぶす（プロセッサの再送を止めるため）
		u.logger.Info("ignoring webhook event", zap.String("type", ev.Type), zap.String("event_id", ev.ID))
		return nil
	}
}

// MarkPaid は支払い成功イベントを反映する。
// 重複配送は吸収する：既にPAID以降ならno-op（未付与のintentだけ拾う）。
// CANCELED済みなら無視する（終端が勝つ。遅れて来た成功で注文は蘇らない）。
func (u *WebhookUsecase) MarkPaid(ctx context.Context, orderID int64, intentID string, meta map[string]string) error {
	if intentID == "" {
		return apperr.New(apperr.KindValidation, "payment intent id is empty")
	}
	if orderID <= 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		// 別のintentのイベントを配線しない
		if o.PaymentIntentID != nil && *o.PaymentIntentID != intentID {
			return apperr.New(apperr.KindPaymentIntentConflict, "event intent does not match order")
		}

		switch o.Status {
		case model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusCompleted:
			// 既に満たされている。intentが未付与ならここで拾って終わり。
			return u.saveIfBound(ctx, r, &o, intentID)
		case model.OrderStatusCanceled:
			u.logger.Info("ignoring succeeded event for canceled order", zap.Int64("order_id", orderID))
			return nil
		}

		if changed, err := bindIntent(&o, intentID); err != nil {
			return err
		} else if changed {
			if err := u.saveOrder(ctx, r, o); err != nil {
				return err
			}
		}

		if err := applyTransition(ctx, r, &o, model.OrderStatusPaid, model.EventSourceWebhook, nil, meta); err != nil {
			return err
		}

		// 支払い完了したらカートを締める（注文コアの責務外なのでここで）
		return u.closeCart(ctx, r, o.UserID)
	})
}

// MarkCancelled は失敗・キャンセルイベントを反映する。
// CANCELED済みはno-op（intentだけ拾う）、COMPLETED済みは無視する。
func (u *WebhookUsecase) MarkCancelled(ctx context.Context, orderID int64, intentID string, reason string, meta map[string]string) error {
	if intentID == "" {
		return apperr.New(apperr.KindValidation, "payment intent id is empty")
	}
	if orderID <= 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		if o.PaymentIntentID != nil && *o.PaymentIntentID != intentID {
			return apperr.New(apperr.KindPaymentIntentConflict, "event intent does not match order")
		}

		switch o.Status {
		case model.OrderStatusCanceled:
			return u.saveIfBound(ctx, r, &o, intentID)
		case model.OrderStatusCompleted:
			u.logger.Info("ignoring cancel event for completed order", zap.Int64("order_id", orderID))
			return nil
		}

		if changed, err := bindIntent(&o, intentID); err != nil {
			return err
		} else if changed {
			if err := u.saveOrder(ctx, r, o); err != nil {
				return err
			}
		}

		// プロセッサ由来の理由はカラム幅に収まるよう切り詰める
		var reasonPtr *string
		if reason != "" {
			if len(reason) > maxReasonLength {
				reason = reason[:maxReasonLength]
			}
			reasonPtr = &reason
		}

		return applyTransition(ctx, r, &o, model.OrderStatusCanceled, model.EventSourceWebhook, reasonPtr, meta)
	})
}

// no-op経路でもintentの後付けだけは行う（イベントは増やさない）
func (u *WebhookUsecase) saveIfBound(ctx context.Context, r repo.TxRepos, o *model.Order, intentID string) error {
	changed, err := bindIntent(o, intentID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return u.saveOrder(ctx, r, *o)
}

func (u *WebhookUsecase) saveOrder(ctx context.Context, r repo.TxRepos, o model.Order) error {
	o.UpdatedAt = time.Now()
	if err := r.Orders().Save(ctx, o); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return apperr.New(apperr.KindPaymentIntentConflict, "payment intent already bound to another order")
		}
		return err
	}
	return nil
}

func (u *WebhookUsecase) closeCart(ctx context.Context, r repo.TxRepos, userID int64) error {
	cart, err := r.Carts().FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
		return err
	}
	return r.Carts().Clear(ctx, cart.ID)
}
