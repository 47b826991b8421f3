package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 行ロック付き取得（SELECT ... FOR UPDATE）。
	// ステータス遷移とintent付与はこれで直列化する。
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	Create(ctx context.Context, order model.Order) (int64, error)

	// ロック済みの行をまるごと保存する。intent重複はErrDuplicate。
	Save(ctx context.Context, order model.Order) error

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// 再利用可能なチェックアウト（同一fingerprintのPENDING＋intent付き）を探す
	FindReusableCheckout(ctx context.Context, userID int64, fingerprint string) (model.Order, bool, error)

	// 管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
