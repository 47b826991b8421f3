package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind は機械可読なエラー種別。レスポンスのcodeにそのまま出す。
type Kind string

const (
	KindCartEmpty                   Kind = "CART_EMPTY"
	KindProductNotFound             Kind = "PRODUCT_NOT_FOUND"
	KindProductInactive             Kind = "PRODUCT_INACTIVE"
	KindMixedCurrency               Kind = "MIXED_CURRENCY"
	KindOrderNotFound               Kind = "ORDER_NOT_FOUND"
	KindInvalidStatusTransition     Kind = "INVALID_STATUS_TRANSITION"
	KindPaymentIntentConflict       Kind = "PAYMENT_INTENT_CONFLICT"
	KindValidation                  Kind = "VALIDATION_ERROR"
	KindPaymentProcessorUnavailable Kind = "PAYMENT_PROCESSOR_UNAVAILABLE"
	KindPaymentProcessorError       Kind = "PAYMENT_PROCESSOR_ERROR"

	// 周辺API用
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL"
)

// Error はKind＋人間向けメッセージを運ぶ。
// 内部エラーはErrに包むがレスポンスには出さない。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf はerrからKindを取り出す。apperrでなければKindInternal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus はKindをHTTPステータスへ写す。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindCartEmpty, KindProductNotFound, KindProductInactive, KindMixedCurrency, KindValidation:
		return http.StatusBadRequest
	case KindOrderNotFound, KindNotFound:
		return http.StatusNotFound
	case KindInvalidStatusTransition, KindPaymentIntentConflict, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPaymentProcessorUnavailable:
		return http.StatusBadGateway
	case KindPaymentProcessorError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
