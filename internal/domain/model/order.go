package model

import "time"

// 注文は作成時点の価格を凍結したスナップショット。
// subtotal_cents は作成後に変わらない。
type Order struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64       `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;index;check:status IN ('PENDING','PAID','SHIPPED','COMPLETED','CANCELED')" json:"status"`
	Currency      string      `gorm:"type:varchar(3);not null" json:"currency"`
	SubtotalCents int64       `gorm:"not null" json:"subtotal_cents"`

	// 外部決済のintent ID。一度セットしたら変更不可、全注文でユニーク。
	PaymentIntentID *string `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	// チェックアウト再利用の照合キー（カート内容のフィンガープリント）
	CheckoutFingerprint string `gorm:"type:varchar(64);not null;index" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// 最初にそのステータスへ遷移した時刻。セットは一度だけ、クリアしない。
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ユーザー削除はRESTRICT（注文があるユーザーは消せない）
	User User `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
