package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/internal/domain/model"
	"crm/internal/repository"
	auth "crm/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLogin_MissingField(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewLoginUsecase(repo, new(MockVerifier), new(MockIssuer), fixedClock{testNow})

	for _, in := range []auth.LoginInput{
		{Username: "", Password: "x"},
		{Username: "admin1", Password: "   "},
	} {
		_, err := uc.Execute(context.Background(), in)
		assert.ErrorIs(t, err, auth.ErrMissingField)
	}
	repo.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

// 存在しないユーザーとパスワード違いは同じエラー
func TestLogin_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)

	uc := auth.NewLoginUsecase(repo, new(MockVerifier), new(MockIssuer), fixedClock{testNow})
	_, err := uc.Execute(context.Background(), auth.LoginInput{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	user := &model.User{ID: 1, Username: "admin1", PasswordHash: "h", Role: model.RoleAdmin, IsActive: true}
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "admin1").Return(user, nil)
	verifier := new(MockVerifier)
	verifier.On("Verify", "bad", "h").Return(false)
	issuer := new(MockIssuer)

	uc := auth.NewLoginUsecase(repo, verifier, issuer, fixedClock{testNow})
	_, err := uc.Execute(context.Background(), auth.LoginInput{Username: "admin1", Password: "bad"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestLogin_Inactive(t *testing.T) {
	user := &model.User{ID: 1, Username: "work", PasswordHash: "h", Role: model.RoleWork, IsActive: false}
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "work").Return(user, nil)
	verifier := new(MockVerifier)

	uc := auth.NewLoginUsecase(repo, verifier, new(MockIssuer), fixedClock{testNow})
	_, err := uc.Execute(context.Background(), auth.LoginInput{Username: "work", Password: "work"})
	assert.ErrorIs(t, err, auth.ErrUserInactive)
	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestLogin_RepoError(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "admin1").Return(nil, errors.New("db down"))

	uc := auth.NewLoginUsecase(repo, new(MockVerifier), new(MockIssuer), fixedClock{testNow})
	_, err := uc.Execute(context.Background(), auth.LoginInput{Username: "admin1", Password: "x"})
	assert.EqualError(t, err, "db down")
}

func TestLogin_Success(t *testing.T) {
	user := &model.User{ID: 7, Username: "logist", PasswordHash: "h", Role: model.RoleLogist, IsActive: true}
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "logist").Return(user, nil)
	verifier := new(MockVerifier)
	verifier.On("Verify", "logist", "h").Return(true)
	issuer := new(MockIssuer)
	issuer.On("Issue", user, testNow).Return("tok", testNow.Add(30*time.Minute), nil)

	uc := auth.NewLoginUsecase(repo, verifier, issuer, fixedClock{testNow})
	out, err := uc.Execute(context.Background(), auth.LoginInput{Username: " logist ", Password: "logist"})

	assert.NoError(t, err)
	assert.Equal(t, "tok", out.AccessToken)
	assert.Equal(t, "bearer", out.TokenType)
	assert.Equal(t, 1800, out.ExpiresIn)
	assert.Equal(t, auth.UserDTO{ID: 7, Username: "logist", Role: model.RoleLogist}, out.User)
}

func TestMe(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, Username: "work", Role: model.RoleWork}, nil)
	repo.On("FindByID", mock.Anything, int64(4)).Return(nil, repository.ErrUserNotFound)

	uc := auth.NewMeUsecase(repo)

	got, err := uc.Execute(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, "work", got.Username)

	_, err = uc.Execute(context.Background(), 4)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = uc.Execute(context.Background(), 0)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
