package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"shop/internal/domain/apperr"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const defaultTimeout = 10 * time.Second

// StripeProvider はStripe PaymentIntents APIでProviderを実装する。
type StripeProvider struct {
	sc      *client.API
	timeout time.Duration
}

func NewStripeProvider(apiKey string, timeout time.Duration) (*StripeProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("stripe: api key is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &StripeProvider{
		sc:      client.New(apiKey, nil),
		timeout: timeout,
	}, nil
}

func (p *StripeProvider) CreateIntent(ctx context.Context, in CreateIntentInput) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(strings.ToLower(in.Currency)),
	}
	params.Context = ctx
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.AddMetadata("order_id", strconv.FormatInt(in.OrderID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(in.UserID, 10))

	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, translateStripeError(err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) RetrieveIntent(ctx context.Context, intentID string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.sc.PaymentIntents.Get(intentID, params)
	if err != nil {
		return Intent{}, translateStripeError(err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func translateStripeError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return apperr.Wrap(apperr.KindPaymentProcessorError, "payment processor rejected the request", err)
	}
	// タイムアウト・接続失敗など
	return apperr.Wrap(apperr.KindPaymentProcessorUnavailable, "payment processor unavailable", err)
}
