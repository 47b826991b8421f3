package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

// OrderLine は注文入力（商品と数量だけ）。価格はカタログから読む。
type OrderLine struct {
	ProductID int64
	Quantity  int64
}

type OrderItemOutput struct {
	ProductID      int64  `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Status        string            `json:"status"`
	Currency      string            `json:"currency"`
	SubtotalCents int64             `json:"subtotal_cents"`
	CreatedAt     time.Time         `json:"created_at"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	ShippedAt     *time.Time        `json:"shipped_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	Items         []OrderItemOutput `json:"items"`
}

type TimelineEventOutput struct {
	ID         int64     `json:"id"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     *string   `json:"reason,omitempty"`
	Source     string    `json:"source"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateOrder はカート内容から注文を確定する（価格凍結）。
// 注文・明細・初回イベントを1トランザクションで書き、失敗したら全部戻す。
// カートのクリアはここではやらない（呼び出し側の責務）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, lines []OrderLine, fingerprint string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if len(lines) == 0 {
		return OrderOutput{}, apperr.New(apperr.KindCartEmpty, "cart is empty")
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return OrderOutput{}, apperr.New(apperr.KindValidation, "invalid product or quantity")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 商品は一括で読む
		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		// 検証しつつ、現在価格をスナップショットして明細を組む
		currency := ""
		var subtotal int64
		orderItems := make([]model.OrderItem, 0, len(lines))
		now := time.Now()

		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return apperr.New(apperr.KindProductNotFound, fmt.Sprintf("product %d not found", l.ProductID))
			}
			if !p.IsActive {
				return apperr.New(apperr.KindProductInactive, fmt.Sprintf("product %d is not for sale", l.ProductID))
			}
			if currency == "" {
				currency = p.Currency
			} else if currency != p.Currency {
				return apperr.New(apperr.KindMixedCurrency, "cart mixes currencies")
			}

			lineTotal := p.PriceCents * l.Quantity
			subtotal += lineTotal
			orderItems = append(orderItems, model.OrderItem{
				ProductID:      p.ID,
				SKU:            p.SKU,
				Name:           p.Name,
				UnitPriceCents: p.PriceCents,
				Currency:       p.Currency,
				Quantity:       l.Quantity,
				LineTotalCents: lineTotal,
				CreatedAt:      now,
			})
		}

		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:              userID,
			Status:              model.OrderStatusPending,
			Currency:            currency,
			SubtotalCents:       subtotal,
			CheckoutFingerprint: fingerprint,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
		if err != nil {
			return err
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		// 初回イベント（from=null→PENDING, source=system）
		if err := r.OrderStatusEvents().Create(ctx, model.OrderStatusEvent{
			OrderID:   orderID,
			ToStatus:  model.OrderStatusPending,
			Source:    model.EventSourceSystem,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		created := model.Order{
			ID:            orderID,
			UserID:        userID,
			Status:        model.OrderStatusPending,
			Currency:      currency,
			SubtotalCents: subtotal,
			CreatedAt:     now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// AttachPaymentIntent は注文へintent IDを冪等に付与する。
// 同じID→no-op成功、別のIDが既に居る→衝突。
// アプリ側チェックを抜けたレースはuniqueインデックスが拾い、同じ衝突として返す。
func (u *OrderUsecase) AttachPaymentIntent(ctx context.Context, orderID int64, intentID string) error {
	if orderID <= 0 {
		return apperr.New(apperr.KindValidation, "invalid order id")
	}
	if intentID == "" {
		return apperr.New(apperr.KindValidation, "payment intent id is empty")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		changed, err := bindIntent(&o, intentID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		o.UpdatedAt = time.Now()
		if err := r.Orders().Save(ctx, o); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return apperr.New(apperr.KindPaymentIntentConflict, "payment intent already bound to another order")
			}
			return err
		}
		return nil
	})
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
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

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, apperr.New(apperr.KindValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return apperr.New(apperr.KindOrderNotFound, "order not found")
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

// GetMyOrderTimeline はステータス変更履歴を古い順で返す。
func (u *OrderUsecase) GetMyOrderTimeline(ctx context.Context, userID int64, orderID int64) ([]TimelineEventOutput, error) {
	if userID <= 0 {
		return []TimelineEventOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return []TimelineEventOutput{}, apperr.New(apperr.KindValidation, "invalid id")
	}

	var outs []TimelineEventOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return apperr.New(apperr.KindOrderNotFound, "order not found")
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

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:      it.ProductID,
			SKU:            it.SKU,
			Name:           it.Name,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		Currency:      o.Currency,
		SubtotalCents: o.SubtotalCents,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
		ShippedAt:     o.ShippedAt,
		CompletedAt:   o.CompletedAt,
		Items:         outItems,
	}
}

func toTimelineEventOutput(ev model.OrderStatusEvent) TimelineEventOutput {
	var from *string
	if ev.FromStatus != nil {
		s := string(*ev.FromStatus)
		from = &s
	}
	return TimelineEventOutput{
		ID:         ev.ID,
		FromStatus: from,
		ToStatus:   string(ev.ToStatus),
		Reason:     ev.Reason,
		Source:     string(ev.Source),
		Metadata:   ev.Metadata,
		CreatedAt:  ev.CreatedAt,
	}
}
