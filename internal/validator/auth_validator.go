package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = fmt.Errorf("invalid input: %w", usecase.ErrValidation)

	// emailが既に使用済み
	ErrEmailAlreadyUsed = fmt.Errorf("email already used: %w", usecase.ErrConflict)

	// refresh tokenが不正
	ErrInvalidRefresh = fmt.Errorf("invalid refresh: %w", usecase.ErrUnauthorized)
)

// 簡易メール形式
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 8
	//bcryptは72バイトまで
	maxPasswordLen = 72
	maxEmailLen    = 255
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if len(email) > maxEmailLen || !isEmailLike(email) {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrInvalidInput
	}

	// email重複チェック（最終的にはunique制約で弾く）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if !isEmailLike(email) {
		return ErrInvalidInput
	}
	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrInvalidRefresh
	}
	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return ErrInvalidInput
	}
	return nil
}

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
