package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminUserUsecase struct {
	tx    repo.TransactionManager
	users repo.UserRepository
}

func NewAdminUserUsecase(tx repo.TransactionManager, users repo.UserRepository) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, users: users}
}

type UserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (u *AdminUserUsecase) List(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page < 1 || limit < 1 || limit > 100 {
		return UserListOutput{}, ErrValidation
	}

	users, total, err := u.users.List(ctx, page, limit)
	if err != nil {
		return UserListOutput{}, dbError(err)
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return UserListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *AdminUserUsecase) Get(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, ErrValidation
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserDTO{}, ErrNotFound
	}
	if err != nil {
		return UserDTO{}, dbError(err)
	}
	return toUserDTO(user), nil
}

// ロール変更。変更したらtoken_versionも上げる（古いroleのトークンを使わせない）
func (u *AdminUserUsecase) SetRole(ctx context.Context, actorID int64, userID int64, role string) (UserDTO, error) {
	newRole := model.Role(role)
	if userID <= 0 || !newRole.Valid() {
		return UserDTO{}, ErrValidation
	}
	//自分自身の降格は不可
	if actorID == userID && newRole != model.RoleAdmin {
		return UserDTO{}, ErrForbidden
	}

	return u.update(ctx, actorID, userID, model.AuditActionUpdateUserRole, func(user *model.User) (string, string, bool) {
		before := string(user.Role)
		if user.Role == newRole {
			return before, before, false
		}
		user.Role = newRole
		user.TokenVersion++
		return fmt.Sprintf(`{"role":%q}`, before), fmt.Sprintf(`{"role":%q}`, string(newRole)), true
	})
}

// 停止したユーザーは既存トークンも無効
func (u *AdminUserUsecase) SetActive(ctx context.Context, actorID int64, userID int64, active bool) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, ErrValidation
	}
	if actorID == userID && !active {
		return UserDTO{}, ErrForbidden
	}

	return u.update(ctx, actorID, userID, model.AuditActionUpdateUserActive, func(user *model.User) (string, string, bool) {
		if user.IsActive == active {
			return "", "", false
		}
		before := user.IsActive
		user.IsActive = active
		if !active {
			user.TokenVersion++
		}
		return fmt.Sprintf(`{"is_active":%t}`, before), fmt.Sprintf(`{"is_active":%t}`, active), true
	})
}

func (u *AdminUserUsecase) update(
	ctx context.Context,
	actorID int64,
	userID int64,
	action model.AuditAction,
	mutate func(user *model.User) (before string, after string, changed bool),
) (UserDTO, error) {
	var out UserDTO
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, "not found")
		}

		before, after, changed := mutate(user)
		out = toUserDTO(user)
		if !changed {
			return nil
		}

		if err := r.Users().Update(ctx, user); err != nil {
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       action,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   before,
			AfterJSON:    after,
		}); err != nil {
			return dbError(err)
		}
		out = toUserDTO(user)
		return nil
	})
	if err != nil {
		return UserDTO{}, txError(err)
	}
	return out, nil
}
