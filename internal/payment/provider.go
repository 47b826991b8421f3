package payment

import "context"

// Intent は外部決済の1回分の請求ハンドル。
type Intent struct {
	ID           string
	ClientSecret string
}

type CreateIntentInput struct {
	AmountCents int64
	Currency    string
	OrderID     int64
	UserID      int64

	// プロセッサ側の二重作成防止キー（order_<orderId>）
	IdempotencyKey string
}

// Provider は決済プロセッサへのアウトバウンド操作。
// 呼び出しは行ロックを持たないスパンで行うこと。
type Provider interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (Intent, error)
}
