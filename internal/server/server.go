package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crm/internal/config"
	"crm/internal/handler"
	appmw "crm/internal/middleware"
	"crm/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// サーバーが持つhandler一式
type Handlers struct {
	Auth   *handler.AuthHandler
	Orders *handler.OrderHandler
	Health *handler.HealthHandler
}

type Options struct {
	Config    config.Config
	Logger    *zap.Logger
	Users     repository.UserRepository
	Validator echo.Validator
	// ローカル保存のときだけ /uploads を公開する
	UploadDir string
}

// echoを組み立ててルートを登録する
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = opts.Validator

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			opts.Logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))
	e.Use(appmw.RequestLogger(opts.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	if opts.UploadDir != "" {
		e.Static("/uploads", opts.UploadDir)
	}

	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(e, opts.Config, opts.Users)
	}
	if h.Orders != nil {
		h.Orders.RegisterRoutes(e, opts.Config, opts.Users)
	}

	return e
}

// ctxがキャンセルされたらgracefulに止める
func Start(ctx context.Context, e *echo.Echo, addr string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}
