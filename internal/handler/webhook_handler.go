package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

// 決済プロセッサからのwebhook受け口。
// 署名検証はここで済ませ、usecaseにはパース済みイベントだけ渡す。
type WebhookHandler struct {
	uc            *usecase.WebhookUsecase
	webhookSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(uc *usecase.WebhookUsecase, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{uc: uc, webhookSecret: webhookSecret, logger: logger}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payment", h.handle)
}

// プロセッサのイベントpayload
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Metadata         map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
			CancellationReason string `json:"cancellation_reason"`
		} `json:"object"`
	} `json:"data"`
}

func (h *WebhookHandler) handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// シークレットが設定されていれば署名検証する（開発環境では空で素通し）
	if h.webhookSecret != "" {
		sig := c.Request().Header.Get("Stripe-Signature")
		if _, err := webhook.ConstructEvent(body, sig, h.webhookSecret); err != nil {
			h.logger.Warn("webhook signature verification failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
		}
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
	}

	orderID, err := strconv.ParseInt(ev.Data.Object.Metadata["order_id"], 10, 64)
	if err != nil || orderID <= 0 {
		// このシステムが作ったintentではない。再送されても結果は同じなので200で返す。
		h.logger.Info("webhook without order metadata", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return c.JSON(http.StatusOK, SuccessResponse{Message: "ignored"})
	}

	reason := ev.Data.Object.CancellationReason
	if reason == "" && ev.Data.Object.LastPaymentError != nil {
		reason = ev.Data.Object.LastPaymentError.Message
	}

	if err := h.uc.HandleEvent(c.Request().Context(), usecase.PaymentEvent{
		ID:       ev.ID,
		Type:     ev.Type,
		IntentID: ev.Data.Object.ID,
		OrderID:  orderID,
		Reason:   reason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
