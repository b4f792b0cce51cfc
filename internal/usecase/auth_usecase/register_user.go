package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm/internal/domain/model"
	"crm/internal/repository"
)

// 登録・同期するユーザー1件
type RegisterUserInput struct {
	Username string
	Password string
	Role     model.Role
}

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidRole     = errors.New("invalid role")
)

// 起動時に用意する既定ユーザー
var DefaultUsers = []RegisterUserInput{
	{Username: "admin1", Password: "nimda", Role: model.RoleAdmin},
	{Username: "admin2", Password: "nimda", Role: model.RoleAdmin},
	{Username: "logist", Password: "logist", Role: model.RoleLogist},
	{Username: "work", Password: "work", Role: model.RoleWork},
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// RegisterUserUsecaseはユーザーの作成と既定値への同期。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
	}
}

// 無ければ作る。あればパスワードを再設定し、有効化してロールを揃える。
// createdは新規作成したときtrue。
func (u *RegisterUserUsecase) Upsert(ctx context.Context, in RegisterUserInput) (user *model.User, created bool, err error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, false, ErrInvalidUsername
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, false, ErrInvalidPassword
	}
	if !in.Role.Valid() {
		return nil, false, ErrInvalidRole
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, false, err
	}
	now := u.clock.Now()

	existing, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	if existing != nil {
		existing.PasswordHash = hashed
		existing.IsActive = true
		existing.Role = in.Role
		existing.UpdatedAt = now
		if err := u.userRepo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	user = &model.User{
		Username:     username,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// 既定ユーザーをまとめて同期する
func (u *RegisterUserUsecase) EnsureUsers(ctx context.Context, users []RegisterUserInput) (created int, updated int, err error) {
	for _, in := range users {
		_, isNew, err := u.Upsert(ctx, in)
		if err != nil {
			return created, updated, fmt.Errorf("ensure user %q: %w", in.Username, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}
