package handler

import (
	"net/http"

	"shop/internal/domain/apperr"
	"shop/internal/middleware"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// writeError はapperrのKindをHTTPに写す。内部の詳細は外に出さない。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := apperr.As(err); ok {
		return c.JSON(ae.Kind.HTTPStatus(), ErrorResponse{Error: ae.Message, Code: string(ae.Kind)})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(apperr.KindInternal)})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	id, ok := raw.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}
