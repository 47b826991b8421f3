package repository

import (
	"context"

	"shop/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderStatusEventGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusEventGormRepository(db *gorm.DB) *OrderStatusEventGormRepository {
	return &OrderStatusEventGormRepository{db: db}
}

func (r *OrderStatusEventGormRepository) Create(ctx context.Context, ev model.OrderStatusEvent) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&ev).Error; err != nil {
		return err
	}
	return nil
}

func (r *OrderStatusEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error) {
	var events []model.OrderStatusEvent
	// 同一created_atでもid順で安定する
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return []model.OrderStatusEvent{}, err
	}
	return events, nil
}
