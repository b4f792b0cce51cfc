package middleware

import (
	"errors"
	"net/http"

	"crm/internal/domain/model"
	"crm/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthJWTの後ろに置く。DBの最新ユーザーを見て、停止・削除済みなら401。
// roleはトークンではなくDBの値を使う。
func ActiveUserGuard(userRepo repository.UserRepository, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return unauthorized(c)
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil {
				if !errors.Is(err, repository.ErrUserNotFound) {
					log.Error("load user failed", zap.Int64("user_id", userID), zap.Error(err))
					return c.JSON(http.StatusInternalServerError, errorResponse{Error: "db error", Code: "INTERNAL"})
				}
				return unauthorized(c)
			}
			if !user.IsActive {
				return unauthorized(c)
			}

			id := model.Identity{UserID: user.ID, Role: user.Role}
			if !id.Valid() {
				return unauthorized(c)
			}
			c.Set(CtxUserRoleKey, string(user.Role))
			c.Set(CtxIdentityKey, id)

			return next(c)
		}
	}
}

// contextのIdentity。無ければok=false。
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(CtxIdentityKey).(model.Identity)
	return id, ok && id.Valid()
}
