// Package repository User 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/storage"
)

// userColumns users 表的列契约，顺序与 scanUser 一一对应
const userColumns = `user_id, username, email, password_hash, full_name, date_of_birth,
	gender, profile_picture_url, subscription_type, is_verified, is_active,
	created_at, updated_at, last_login`

// CreateUser 创建用户，返回生成的主键
//
// subscription_type 为空时落库为 'Free'；created_at/updated_at 由数据库生成。
func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	sub := user.SubscriptionType
	if sub == "" {
		sub = model.SubscriptionFree
	}

	nowExpr := s.now()
	query := s.rebind(`
		INSERT INTO users (username, email, password_hash, full_name, date_of_birth,
			gender, profile_picture_url, subscription_type, is_verified, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, ` + nowExpr + `, ` + nowExpr + `)
		RETURNING user_id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.DateOfBirth,
		user.Gender, user.ProfilePictureURL, sub, user.IsVerified, user.IsActive,
	).Scan(&id)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return 0, fmt.Errorf("create user: %w", storage.ErrDuplicate)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("create user: no generated id")
	}
	return id, nil
}

// GetUserByID 通过主键查找用户
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE user_id = $1`)
	return s.queryUser(ctx, query, id)
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = $1`)
	return s.queryUser(ctx, query, email)
}

// GetUserByUsername 通过用户名查找用户
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE username = $1`)
	return s.queryUser(ctx, query, username)
}

// UpdateUser 整行更新用户资料，返回是否命中
func (s *Store) UpdateUser(ctx context.Context, user *model.User) (bool, error) {
	query := s.rebind(`
		UPDATE users SET username = $1, email = $2, full_name = $3, date_of_birth = $4,
			gender = $5, profile_picture_url = $6, subscription_type = $7,
			is_verified = $8, is_active = $9, updated_at = ` + s.now() + `
		WHERE user_id = $10`)

	res, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.FullName, user.DateOfBirth,
		user.Gender, user.ProfilePictureURL, user.SubscriptionType,
		user.IsVerified, user.IsActive, user.UserID)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return false, fmt.Errorf("update user: %w", storage.ErrDuplicate)
		}
		return false, fmt.Errorf("update user: %w", err)
	}
	return rowsAffected(res), nil
}

// UpdateLastLogin 刷新最近登录时间
func (s *Store) UpdateLastLogin(ctx context.Context, id int64) (bool, error) {
	nowExpr := s.now()
	query := s.rebind(`UPDATE users SET last_login = ` + nowExpr + `, updated_at = ` + nowExpr + ` WHERE user_id = $1`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("update last login: %w", err)
	}
	return rowsAffected(res), nil
}

// DeleteUser 硬删除用户（无墓碑）
func (s *Store) DeleteUser(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(`DELETE FROM users WHERE user_id = $1`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return rowsAffected(res), nil
}

// ListUsers 分页列出用户，按创建时间降序
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users
		ORDER BY created_at DESC, user_id DESC LIMIT $1 OFFSET $2`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListUsersBySubscription 列出指定订阅类型的活跃用户
func (s *Store) ListUsersBySubscription(ctx context.Context, sub model.SubscriptionType) ([]*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users
		WHERE subscription_type = $1 AND is_active = TRUE
		ORDER BY created_at DESC, user_id DESC`)
	rows, err := s.db.QueryContext(ctx, query, sub)
	if err != nil {
		return nil, fmt.Errorf("list users by subscription: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// CountUsers 用户总数
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) queryUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UserID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FullName, &user.DateOfBirth, &user.Gender, &user.ProfilePictureURL,
		&user.SubscriptionType, &user.IsVerified, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func scanUsers(rows *sql.Rows) ([]*model.User, error) {
	var users []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(
			&u.UserID, &u.Username, &u.Email, &u.PasswordHash,
			&u.FullName, &u.DateOfBirth, &u.Gender, &u.ProfilePictureURL,
			&u.SubscriptionType, &u.IsVerified, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
