package repository

import (
	"context"
	"errors"

	"crm/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//ユーザー名からユーザーを一件取得する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// ユーザー情報の更新=>パスワード・有効フラグ・ロールの修正など
	Update(ctx context.Context, user *model.User) error
}
