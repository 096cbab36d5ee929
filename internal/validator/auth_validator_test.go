package validator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, page, limit)
	list, _ := args.Get(0).([]model.User)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		found    *model.User
		findErr  error
		wantIs   error
	}{
		{name: "ok", email: "a@test.com", password: "password123", findErr: repository.ErrNotFound},
		{name: "empty", email: "", password: "", wantIs: usecase.ErrValidation},
		{name: "bad email", email: "a.test.com", password: "password123", wantIs: usecase.ErrValidation},
		{name: "short password", email: "a@test.com", password: "1234567", wantIs: usecase.ErrValidation},
		{name: "long password", email: "a@test.com", password: strings.Repeat("x", 73), wantIs: usecase.ErrValidation},
		{name: "taken", email: "a@test.com", password: "password123", found: &model.User{ID: 1}, wantIs: usecase.ErrConflict},
		{name: "storage down", email: "a@test.com", password: "password123", findErr: repository.ErrStorageUnavailable, wantIs: repository.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mockUserRepo)
			users.On("FindByEmail", mock.Anything, tt.email).Return(tt.found, tt.findErr).Maybe()

			err := validator.NewAuthValidator(users).ValidateRegister(context.Background(), tt.email, tt.password)
			if tt.wantIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
		})
	}
}

func TestValidateRefreshAndForceLogout(t *testing.T) {
	v := validator.NewAuthValidator(new(mockUserRepo))
	ctx := context.Background()

	assert.ErrorIs(t, v.ValidateRefresh(ctx, "  ", "ua"), usecase.ErrUnauthorized)
	assert.NoError(t, v.ValidateRefresh(ctx, "token", "ua"))
	assert.ErrorIs(t, v.ValidateForceLogout(ctx, 0), usecase.ErrValidation)
	assert.NoError(t, v.ValidateForceLogout(ctx, 3))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "x", "pw"), usecase.ErrValidation)
}
