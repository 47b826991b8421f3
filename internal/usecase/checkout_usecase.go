package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	"shop/internal/payment"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

type CheckoutUsecase struct {
	tx       repo.TransactionManager
	orders   *OrderUsecase
	provider payment.Provider
	logger   *zap.Logger
}

func NewCheckoutUsecase(tx repo.TransactionManager, orders *OrderUsecase, provider payment.Provider, logger *zap.Logger) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, orders: orders, provider: provider, logger: logger}
}

type CheckoutOutput struct {
	OrderID      int64  `json:"order_id"`
	ClientSecret string `json:"client_secret"`

	// trueなら既存の注文+intentの再利用（HTTP 200）、falseなら新規（201）
	Reused bool `json:"-"`
}

// Fingerprint はカート内容の決定的なシリアライズのハッシュ。
// 商品IDでソート、同一商品は数量を合算してから "id:qty|id:qty" を固める。
func Fingerprint(lines []OrderLine) string {
	merged := make(map[int64]int64, len(lines))
	for _, l := range lines {
		merged[l.ProductID] += l.Quantity
	}

	ids := make([]int64, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%d:%d", id, merged[id])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Checkout はACTIVEカートから注文とpayment intentを用意する。
// 同じカート内容での再送は同じ(orderID, clientSecret)を返す。
//
// intent作成は行ロックを持たない場所で行う：注文作成トランザクションを
// コミットしてからプロセッサを呼び、intentは短い別トランザクションで付与する。
// intent作成がタイムアウトしても注文はPENDINGのまま残り、再試行で再利用される。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, apperr.New(apperr.KindUnauthorized, "unauthorized")
	}

	// カートを読む（スナップショットとして扱い、ここでは触らない）
	var lines []OrderLine
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		lines = make([]OrderLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	fingerprint := Fingerprint(lines)

	// 同じ内容のチェックアウトが進行中なら同じ注文とintentを返す
	var reusable model.Order
	found := false
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, ok, err := r.Orders().FindReusableCheckout(ctx, userID, fingerprint)
		if err != nil {
			return err
		}
		reusable, found = o, ok
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	if found && reusable.PaymentIntentID != nil {
		intent, err := u.provider.RetrieveIntent(ctx, *reusable.PaymentIntentID)
		if err != nil {
			return CheckoutOutput{}, err
		}
		u.logger.Info("checkout reused",
			zap.Int64("order_id", reusable.ID),
			zap.Int64("user_id", userID),
		)
		return CheckoutOutput{OrderID: reusable.ID, ClientSecret: intent.ClientSecret, Reused: true}, nil
	}

	if len(lines) == 0 {
		return CheckoutOutput{}, apperr.New(apperr.KindCartEmpty, "cart is empty")
	}

	// 注文作成（価格凍結）。ここでコミットされる。
	order, err := u.orders.CreateOrder(ctx, userID, lines, fingerprint)
	if err != nil {
		return CheckoutOutput{}, err
	}

	// プロセッサ呼び出しはロック外。失敗しても注文はPENDINGのまま、
	// intent未付与なので二重請求にはならない。
	intent, err := u.provider.CreateIntent(ctx, payment.CreateIntentInput{
		AmountCents:    order.SubtotalCents,
		Currency:       order.Currency,
		OrderID:        order.ID,
		UserID:         userID,
		IdempotencyKey: fmt.Sprintf("order_%d", order.ID),
	})
	if err != nil {
		u.logger.Warn("payment intent creation failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return CheckoutOutput{}, err
	}

	// intent付与は短い別トランザクション
	if err := u.orders.AttachPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return CheckoutOutput{}, err
	}

	u.logger.Info("checkout created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("subtotal_cents", order.SubtotalCents),
	)
	return CheckoutOutput{OrderID: order.ID, ClientSecret: intent.ClientSecret, Reused: false}, nil
}
