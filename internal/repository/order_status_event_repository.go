package repository

import (
	"context"

	"shop/internal/domain/model"
)

type OrderStatusEventRepository interface {
	Create(ctx context.Context, ev model.OrderStatusEvent) error

	// 古い順（created_at asc, id asc）。同時刻でも順序が安定する。
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error)
}
