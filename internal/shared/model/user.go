package model

import "time"

// SubscriptionType 订阅类型
type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "Free"
	SubscriptionPremium SubscriptionType = "Premium"
	SubscriptionFamily  SubscriptionType = "Family"
	SubscriptionStudent SubscriptionType = "Student"
)

// ValidSubscription 判断订阅类型是否合法
func ValidSubscription(t SubscriptionType) bool {
	switch t {
	case SubscriptionFree, SubscriptionPremium, SubscriptionFamily, SubscriptionStudent:
		return true
	}
	return false
}

// User 用户账号
//
// 可空列（full_name、date_of_birth 等）用指针表达，扫描时 NULL 映射为 nil，
// 不使用哨兵值。PasswordHash 永不序列化到 JSON。
type User struct {
	UserID            int64            `json:"user_id" db:"user_id"`
	Username          string           `json:"username" db:"username"`
	Email             string           `json:"email" db:"email"`
	PasswordHash      string           `json:"-" db:"password_hash"` // never expose in JSON
	FullName          *string          `json:"full_name,omitempty" db:"full_name"`
	DateOfBirth       *time.Time       `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender            *string          `json:"gender,omitempty" db:"gender"`
	ProfilePictureURL *string          `json:"profile_picture_url,omitempty" db:"profile_picture_url"`
	SubscriptionType  SubscriptionType `json:"subscription_type" db:"subscription_type"`
	IsVerified        bool             `json:"is_verified" db:"is_verified"`
	IsActive          bool             `json:"is_active" db:"is_active"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
	LastLogin         *time.Time       `json:"last_login,omitempty" db:"last_login"`
}
