// Package user 用户领域 - 账号注册、认证与资料管理
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/storage"
)

// 业务错误（处理器据此映射 HTTP 状态码）
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Service 用户领域服务
type Service struct {
	store storage.UserStore
}

// NewService 创建用户服务
func NewService(store storage.UserStore) *Service {
	return &Service{store: store}
}

// RegisterParams 注册参数
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	FullName    *string
	DateOfBirth *time.Time
	Gender      *string
}

// Register 注册新用户
//
// 先查邮箱再查用户名，命中即返回对应的占用错误；
// 通过后用 bcrypt 派生凭据落库。数据库唯一约束兜底并发竞争。
func (s *Service) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if username == "" || email == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &model.User{
		Username:         username,
		Email:            email,
		PasswordHash:     hash,
		FullName:         params.FullName,
		DateOfBirth:      params.DateOfBirth,
		Gender:           params.Gender,
		SubscriptionType: model.SubscriptionFree,
		IsActive:         true,
	}

	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		// 并发注册下唯一约束兜底
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.store.GetUserByID(ctx, id)
}

// Authenticate 校验邮箱密码
//
// 用户不存在和密码错误统一返回 ErrInvalidCredentials，不泄露账号是否存在。
// 认证成功后刷新 last_login 并返回最新记录。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if u == nil || !u.IsActive || !auth.VerifyPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.store.UpdateLastLogin(ctx, u.UserID); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return s.store.GetUserByID(ctx, u.UserID)
}

// Profile 按 ID 读取用户资料
func (s *Service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ProfileUpdate 可更新的资料字段（nil 表示不变）
type ProfileUpdate struct {
	Username          *string
	Email             *string
	FullName          *string
	DateOfBirth       *time.Time
	Gender            *string
	ProfilePictureURL *string
}

// UpdateProfile 更新用户资料
//
// 仅覆盖提供的字段；用户名/邮箱变更会触发唯一性检查。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*model.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
		}
		if email != u.Email {
			other, err := s.store.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if other != nil {
				return nil, ErrEmailTaken
			}
			u.Email = email
		}
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
		}
		if username != u.Username {
			other, err := s.store.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			if other != nil {
				return nil, ErrUsernameTaken
			}
			u.Username = username
		}
	}
	if upd.FullName != nil {
		u.FullName = upd.FullName
	}
	if upd.DateOfBirth != nil {
		u.DateOfBirth = upd.DateOfBirth
	}
	if upd.Gender != nil {
		u.Gender = upd.Gender
	}
	if upd.ProfilePictureURL != nil {
		u.ProfilePictureURL = upd.ProfilePictureURL
	}

	ok, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	return s.store.GetUserByID(ctx, userID)
}

// ChangeSubscription 变更订阅档位
func (s *Service) ChangeSubscription(ctx context.Context, userID int64, tier model.SubscriptionType) (*model.User, error) {
	if !model.ValidSubscription(tier) {
		return nil, fmt.Errorf("%w: unknown subscription type %q", ErrInvalidInput, tier)
	}

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.SubscriptionType = tier
	ok, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	return s.store.GetUserByID(ctx, userID)
}

// Delete 删除用户账号
func (s *Service) Delete(ctx context.Context, userID int64) error {
	ok, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// List 分页列出用户（page 从 1 开始）
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*model.User, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page_size must be positive", ErrInvalidInput)
	}
	users, err := s.store.ListUsers(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// BySubscription 按订阅档位列出活跃用户
func (s *Service) BySubscription(ctx context.Context, tier model.SubscriptionType) ([]*model.User, error) {
	if !model.ValidSubscription(tier) {
		return nil, fmt.Errorf("%w: unknown subscription type %q", ErrInvalidInput, tier)
	}
	users, err := s.store.ListUsersBySubscription(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by subscription: %w", err)
	}
	return users, nil
}

// Count 统计用户总数
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountUsers(ctx)
}
