package usecase

import (
	"context"
	"errors"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 公開カタログは読み取り専用。CRUDは持たない。
type ProductUsecase struct {
	products repo.ProductRepository
}

func NewProductUsecase(products repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

type ProductOutput struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
}

func (u *ProductUsecase) List(ctx context.Context, page, limit int) (ProductListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	products, total, err := u.products.ListActive(ctx, page, limit)
	if err != nil {
		return ProductListOutput{}, err
	}

	out := ProductListOutput{Items: make([]ProductOutput, 0, len(products)), Total: total}
	for _, p := range products {
		out.Items = append(out.Items, toProductOutput(p))
	}
	return out, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, apperr.New(apperr.KindValidation, "invalid id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, apperr.New(apperr.KindNotFound, "product not found")
	}
	if err != nil {
		return ProductOutput{}, err
	}
	if !p.IsActive {
		//非公開は「存在しない扱い」にする
		return ProductOutput{}, apperr.New(apperr.KindNotFound, "product not found")
	}
	return toProductOutput(p), nil
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
	}
}
