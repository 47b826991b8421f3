package usecase

import (
	"context"
	"testing"

	"shop/internal/domain/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductList_ActiveOnly(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	hidden := activeProduct(2, 300, "JPY")
	hidden.IsActive = false
	s.addProduct(hidden)
	uc := NewProductUsecase(&memProductRepo{s})

	out, err := uc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.Items[0].ID)
	assert.Equal(t, int64(1), out.Total)
}

func TestProductGet(t *testing.T) {
	s := newMemStore()
	s.addProduct(activeProduct(1, 500, "JPY"))
	uc := NewProductUsecase(&memProductRepo{s})
	ctx := context.Background()

	out, err := uc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.PriceCents)

	_, err = uc.Get(ctx, 99)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

// 非公開商品は404扱い
func TestProductGet_InactiveLooksMissing(t *testing.T) {
	s := newMemStore()
	p := activeProduct(1, 500, "JPY")
	p.IsActive = false
	s.addProduct(p)
	uc := NewProductUsecase(&memProductRepo{s})

	_, err := uc.Get(context.Background(), 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
