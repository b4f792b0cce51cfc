package auth

import (
	"context"
	"errors"

	"crm/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type MeUsecase struct {
	userRepo repository.UserRepository
}

func NewMeUsecase(userRepo repository.UserRepository) *MeUsecase {
	return &MeUsecase{userRepo: userRepo}
}

// ログイン中のユーザー情報
func (u *MeUsecase) Execute(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, ErrUserNotFound
	}
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return UserDTO{}, ErrUserNotFound
		}
		return UserDTO{}, err
	}
	return ToUserDTO(user), nil
}
