package usecase

import (
	"context"
	"errors"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートは数量だけを持ち、表示価格は現在のカタログから引く。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemOutput struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int64  `json:"quantity"`
}

type CartOutput struct {
	Items      []CartItemOutput `json:"items"`
	TotalCents int64            `json:"total_cents"`
	Currency   string           `json:"currency,omitempty"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		out, err = u.buildCartOutput(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

// AddItem はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindValidation, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartOutput{}, apperr.New(apperr.KindValidation, "invalid quantity")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}

		// 商品チェック（公開のみ）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindProductNotFound, "product not found")
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperr.New(apperr.KindProductInactive, "product is not for sale")
		}

		if err := r.CartItems().Upsert(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
			return err
		}

		out, err = u.buildCartOutput(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, productID int64, quantity int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if productID <= 0 || quantity < 1 {
		return CartOutput{}, apperr.New(apperr.KindValidation, "invalid product or quantity")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "cart not found")
		}
		if err != nil {
			return err
		}

		if err := r.CartItems().UpdateQuantity(ctx, cart.ID, productID, quantity); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "item not in cart")
			}
			return err
		}

		out, err = u.buildCartOutput(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartOutput{}, apperr.New(apperr.KindValidation, "invalid product_id")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "cart not found")
		}
		if err != nil {
			return err
		}

		if err := r.CartItems().Remove(ctx, cart.ID, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "item not in cart")
			}
			return err
		}

		out, err = u.buildCartOutput(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperr.New(apperr.KindUnauthorized, "unauthorized")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.Carts().Clear(ctx, cart.ID)
	})
}

func (u *CartUsecase) buildCartOutput(ctx context.Context, r repo.TxRepos, cartID int64) (CartOutput, error) {
	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return CartOutput{}, err
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := CartOutput{Items: make([]CartItemOutput, 0, len(items))}
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			// カタログから消えた商品は表示しない
			continue
		}
		out.Items = append(out.Items, CartItemOutput{
			ProductID:  it.ProductID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   it.Quantity,
		})
		out.TotalCents += p.PriceCents * it.Quantity
		if out.Currency == "" {
			out.Currency = p.Currency
		}
	}
	return out, nil
}
