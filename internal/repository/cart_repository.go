package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CartRepository interface {
	FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
	GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	Upsert(ctx context.Context, cartID int64, productID int64, quantity int64) error
	UpdateQuantity(ctx context.Context, cartID int64, productID int64, quantity int64) error
	Remove(ctx context.Context, cartID int64, productID int64) error
}
