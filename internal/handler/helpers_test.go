package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop/internal/domain/apperr"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_MapsKindsToStatus(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindCartEmpty, http.StatusBadRequest},
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindOrderNotFound, http.StatusNotFound},
		{apperr.KindInvalidStatusTransition, http.StatusConflict},
		{apperr.KindPaymentIntentConflict, http.StatusConflict},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindPaymentProcessorUnavailable, http.StatusBadGateway},
	}

	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		require.NoError(t, writeError(c, apperr.New(tc.kind, "boom")))
		assert.Equal(t, tc.want, rec.Code, "kind=%s", tc.kind)
		assert.Contains(t, rec.Body.String(), string(tc.kind))
	}
}

// apperr以外は詳細を漏らさず500
func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, writeError(c, errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
