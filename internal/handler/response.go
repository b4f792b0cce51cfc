package handler

import (
	"net/http"

	"crm/internal/domain/model"
	"crm/internal/middleware"
	"crm/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをJSONにする
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			middleware.LoggerFrom(c).Error("request failed", zap.String("code", he.Code), zap.String("message", he.Message))
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}

	//500
	middleware.LoggerFrom(c).Error("unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
}

func getIdentityFromContext(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthenticated(c echo.Context) error {
	return writeError(c, usecase.ErrUnauthenticated())
}
