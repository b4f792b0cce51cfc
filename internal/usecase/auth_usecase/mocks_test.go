package auth_test

import (
	"context"
	"time"

	"crm/internal/domain/model"
	"crm/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

type MockVerifier struct{ mock.Mock }

func (m *MockVerifier) Verify(plain string, hashed string) bool {
	return m.Called(plain, hashed).Bool(0)
}

type MockIssuer struct{ mock.Mock }

func (m *MockIssuer) Issue(user *model.User, now time.Time) (string, time.Time, error) {
	args := m.Called(user, now)
	exp, _ := args.Get(1).(time.Time)
	return args.String(0), exp, args.Error(2)
}

type MockHasher struct{ mock.Mock }

func (m *MockHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
