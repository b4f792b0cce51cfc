package handler

import (
	"errors"
	"net/http"

	"crm/internal/config"
	"crm/internal/middleware"
	"crm/internal/repository"
	"crm/internal/usecase"
	auth "crm/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	loginUC *auth.LoginUsecase
	meUC    *auth.MeUsecase
	log     *zap.Logger
}

// DIコンストラクタ
func NewAuthHandler(loginUC *auth.LoginUsecase, meUC *auth.MeUsecase, log *zap.Logger) *AuthHandler {
	return &AuthHandler{loginUC: loginUC, meUC: meUC, log: log}
}

// フォームでもJSONでも受ける
type loginRequest struct {
	Username string `json:"username" form:"username" validate:"notblank,max=100"`
	Password string `json:"password" form:"password" validate:"notblank"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/auth")
	g.POST("/login", h.login)

	me := g.Group("/me")
	me.Use(middleware.AuthJWT(cfg))
	me.Use(middleware.ActiveUserGuard(userRepo, h.log))
	me.GET("", h.me)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}
	//echoに登録したvalidatorで入力チェック
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: usecase.CodeValidation})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required", Code: usecase.CodeValidation})
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect username or password", Code: usecase.CodeInvalidCredentials})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user account is disabled", Code: usecase.CodeAccountDisabled})
		default:
			h.log.Error("login failed", zap.Error(err))
			return writeError(c, usecase.ErrInternal("login failed"))
		}
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	out, err := h.meUC.Execute(c.Request().Context(), id.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return unauthenticated(c)
		}
		return writeError(c, usecase.ErrInternal("db error"))
	}
	return c.JSON(http.StatusOK, out)
}
