package repository

import (
	"context"

	"shop/internal/domain/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)

	// 注文確定用の一括取得。見つかったものだけ返す。
	FindByIDs(ctx context.Context, productIDs []int64) ([]model.Product, error)

	ListActive(ctx context.Context, page int, limit int) ([]model.Product, int64, error)
}
