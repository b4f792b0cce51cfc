package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const CtxLoggerKey = "logger"

// リクエストごとにrequest_id付きのloggerを入れ、終わったら1行出す
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			reqLog := log.With(zap.String("request_id", reqID))
			c.Set(CtxLoggerKey, reqLog)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			}
			if userID, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.Int64("user_id", userID))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				reqLog.Error("request", fields...)
			case status >= 400:
				reqLog.Warn("request", fields...)
			default:
				reqLog.Info("request", fields...)
			}
			return nil
		}
	}
}

// handlerから使う。無ければ何も出さないlogger。
func LoggerFrom(c echo.Context) *zap.Logger {
	if l, ok := c.Get(CtxLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
