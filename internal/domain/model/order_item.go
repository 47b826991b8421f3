package model

import "time"

// 注文明細。(order_id, product_id) が複合主キー。
// sku/name/単価は注文時点のスナップショットで、カタログが変わっても影響しない。
type OrderItem struct {
	OrderID        int64     `gorm:"primaryKey" json:"order_id"`
	ProductID      int64     `gorm:"primaryKey" json:"product_id"`
	SKU            string    `gorm:"type:varchar(64);not null" json:"sku"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	Currency       string    `gorm:"type:varchar(3);not null" json:"currency"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	// 注文削除で明細も消える
	Order Order `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
