package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm/internal/domain/model"
	"crm/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Username string
	Password string
}

// パスワードを除いたユーザー
type UserDTO struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"`
	User        UserDTO `json:"user"`
}

var (
	// usernameかpasswordが空
	ErrMissingField = errors.New("missing field")

	// ユーザー名またはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")

	// 停止済みユーザー
	ErrUserInactive = errors.New("user is inactive")
)

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(user *model.User, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	if username == "" || password == "" {
		return out, ErrMissingField
	}

	//usernameでユーザー取得
	user, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	//パスワード照合
	if ok := u.verifier.Verify(password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//AccessToken発行
	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user, now)
	if err != nil {
		return out, err
	}

	out.AccessToken = token
	out.TokenType = "bearer"
	out.ExpiresIn = int(exp.Sub(now).Seconds())
	out.User = ToUserDTO(user)
	return out, nil
}

func ToUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
