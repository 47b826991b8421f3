package model

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// 許可された遷移だけを持つテーブル。COMPLETED/CANCELEDは終端。
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusPaid: true, OrderStatusCanceled: true},
	OrderStatusPaid:      {OrderStatusShipped: true, OrderStatusCanceled: true},
	OrderStatusShipped:   {OrderStatusCompleted: true},
	OrderStatusCompleted: {},
	OrderStatusCanceled:  {},
}

// CanTransition はfrom→toがテーブル上で許可されているかを返す。
// 同一ステータスへの遷移（no-op）はここでは扱わず、呼び出し側で判定する。
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCanceled:
		return true
	default:
		return false
	}
}
