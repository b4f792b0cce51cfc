package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "crm/internal/repository"
)

// 呼び出し側に返す安定したエラーコード
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUploadRejected     = "UPLOAD_REJECTED"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// コードが一致するか（テスト・ハンドラ用）
func HasCode(err error, code string) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Code == code
}

func ErrUnauthenticated() error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthenticated, "unauthenticated")
}

func ErrPermissionDenied(message string) error {
	return NewHTTPError(http.StatusForbidden, CodePermissionDenied, message)
}

func ErrNotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, CodeNotFound, message)
}

func ErrInvalidTransition(expected, actual string) error {
	return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition,
		fmt.Sprintf("invalid transition: expected status %s, got %s", expected, actual))
}

func ErrValidation(message string) error {
	return NewHTTPError(http.StatusBadRequest, CodeValidation, message)
}

func ErrUploadRejected(message string) error {
	return NewHTTPError(http.StatusBadRequest, CodeUploadRejected, message)
}

func ErrConflict(message string) error {
	return NewHTTPError(http.StatusConflict, CodeConflict, message)
}

func ErrInternal(message string) error {
	return NewHTTPError(http.StatusInternalServerError, CodeInternal, message)
}

// repositoryのエラーをHTTPErrorにする。既にHTTPErrorならそのまま。
func mapRepoError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound(notFoundMsg)
	case errors.Is(err, repo.ErrConflict):
		return ErrConflict("concurrent update, retry")
	default:
		return ErrInternal("db error")
	}
}
