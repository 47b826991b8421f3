package usecase

import (
	"context"
	"errors"
	"strings"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type AdminSetStatusInput struct {
	Status string
	Reason string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, apperr.New(apperr.KindValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, apperr.New(apperr.KindValidation, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// SetStatus は管理者操作でステータスを遷移させる。
// 行ロック→ガード→更新＋タイムスタンプ＋イベント追記を1トランザクションでやる。
// 同一ステータスへの指定はno-op成功（イベントも増やさない）。
func (u *AdminOrderUsecase) SetStatus(ctx context.Context, orderID int64, in AdminSetStatusInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.New(apperr.KindValidation, "invalid id")
	}

	next := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !next.IsValid() {
		return OrderOutput{}, apperr.New(apperr.KindValidation, "invalid status")
	}

	reason := strings.TrimSpace(in.Reason)
	if len(reason) > maxReasonLength {
		return OrderOutput{}, apperr.New(apperr.KindValidation, "reason too long")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		// すでに同じなら何もしない
		if o.Status == next {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			out = toOrderOutput(o, items)
			return nil
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		if err := applyTransition(ctx, r, &o, next, model.EventSourceAdmin, reasonPtr, nil); err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// GetTimeline は管理者用にイベント履歴を古い順で返す。
func (u *AdminOrderUsecase) GetTimeline(ctx context.Context, orderID int64) ([]TimelineEventOutput, error) {
	if orderID <= 0 {
		return []TimelineEventOutput{}, apperr.New(apperr.KindValidation, "invalid id")
	}

	var outs []TimelineEventOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.New(apperr.KindOrderNotFound, "order not found")
			}
			return err
		}

		events, err := r.OrderStatusEvents().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		outs = make([]TimelineEventOutput, 0, len(events))
		for _, ev := range events {
			outs = append(outs, toTimelineEventOutput(ev))
		}
		return nil
	})

	if err != nil {
		return []TimelineEventOutput{}, err
	}
	return outs, nil
}
