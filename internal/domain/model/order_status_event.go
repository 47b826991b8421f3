package model

import "time"

// 誰がステータスを変えたか
type EventSource string

const (
	EventSourceSystem  EventSource = "system"
	EventSourceAdmin   EventSource = "admin"
	EventSourceWebhook EventSource = "webhook"
)

// ステータス変更の監査ログ。追記のみで更新・削除しない。
// 注文作成時に1件（from=null→PENDING, source=system）、
// 以降は遷移が成功するたびに1件増える。
type OrderStatusEvent struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	// 初回イベントだけnull
	FromStatus *OrderStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   OrderStatus  `gorm:"type:varchar(20);not null" json:"to_status"`

	Reason *string     `gorm:"type:varchar(500)" json:"reason,omitempty"`
	Source EventSource `gorm:"type:varchar(20);not null" json:"source"`

	// JSON文字列で保存する
	Metadata string `gorm:"type:text" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`

	Order Order `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
