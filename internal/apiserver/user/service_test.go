package user

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/shared/model"
	sqlitedriver "music-catalog/internal/shared/storage/driver/sqlite"
	"music-catalog/internal/shared/storage/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return NewService(store), store
}

func register(t *testing.T, svc *Service, username, email, password string) *model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterParams{
		Username: username, Email: email, Password: password,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "alice", "Alice@Example.com", "pw-123456")

	assert.Equal(t, "alice", u.Username)
	// 邮箱归一化为小写
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.SubscriptionFree, u.SubscriptionType)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsVerified)
	assert.Nil(t, u.LastLogin)
	// 新凭据一律 bcrypt
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))

	// 缺字段
	_, err := svc.Register(ctx, RegisterParams{Username: "x", Email: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// 非法邮箱
	_, err = svc.Register(ctx, RegisterParams{Username: "x", Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// 邮箱占用（大小写不敏感）
	_, err = svc.Register(ctx, RegisterParams{Username: "other", Email: "ALICE@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 用户名占用
	_, err = svc.Register(ctx, RegisterParams{Username: "alice", Email: "alice2@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	register(t, svc, "bob", "bob@example.com", "correct horse")

	u, err := svc.Authenticate(ctx, "bob@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "bob", u.Username)
	// 认证成功后 last_login 已刷新
	assert.NotNil(t, u.LastLogin)

	// 密码错误和账号不存在返回同一错误
	_, err = svc.Authenticate(ctx, "bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 停用账号不可登录
	u.IsActive = false
	_, err = store.UpdateUser(ctx, u)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "bob@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateLegacyHash(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// 存量数据中的旧式 SHA-256+Base64 凭据仍可登录
	_, err := store.CreateUser(ctx, &model.User{
		Username:     "legacy",
		Email:        "legacy@example.com",
		PasswordHash: auth.LegacyPasswordDigest("old-password"),
		IsActive:     true,
	})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "legacy@example.com", "old-password")
	require.NoError(t, err)
	assert.Equal(t, "legacy", u.Username)

	_, err = svc.Authenticate(ctx, "legacy@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "carol", "carol@example.com", "pw")
	register(t, svc, "dave", "dave@example.com", "pw")

	// 部分字段更新
	name := "Carol C"
	updated, err := svc.UpdateProfile(ctx, u.UserID, ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Carol C", *updated.FullName)
	assert.Equal(t, "carol@example.com", updated.Email)

	// 改到被占用的邮箱
	taken := "dave@example.com"
	_, err = svc.UpdateProfile(ctx, u.UserID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 改到被占用的用户名
	takenName := "dave"
	_, err = svc.UpdateProfile(ctx, u.UserID, ProfileUpdate{Username: &takenName})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// 改回自己的邮箱不算冲突
	own := "carol@example.com"
	_, err = svc.UpdateProfile(ctx, u.UserID, ProfileUpdate{Email: &own})
	assert.NoError(t, err)

	// 空用户名非法
	empty := "  "
	_, err = svc.UpdateProfile(ctx, u.UserID, ProfileUpdate{Username: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// 不存在的用户
	_, err = svc.UpdateProfile(ctx, 99999, ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangeSubscription(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "erin", "erin@example.com", "pw")

	updated, err := svc.ChangeSubscription(ctx, u.UserID, model.SubscriptionPremium)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPremium, updated.SubscriptionType)

	_, err = svc.ChangeSubscription(ctx, u.UserID, "Gold")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ChangeSubscription(ctx, 99999, model.SubscriptionFree)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListAndCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "u1", "u1@example.com", "pw")
	register(t, svc, "u2", "u2@example.com", "pw")
	register(t, svc, "u3", "u3@example.com", "pw")

	page1, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	// 页码从 1 开始
	_, err = svc.List(ctx, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.List(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// 按订阅档位
	free, err := svc.BySubscription(ctx, model.SubscriptionFree)
	require.NoError(t, err)
	assert.Len(t, free, 3)

	_, err = svc.BySubscription(ctx, "Platinum")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "frank", "frank@example.com", "pw")

	require.NoError(t, svc.Delete(ctx, u.UserID))
	assert.ErrorIs(t, svc.Delete(ctx, u.UserID), ErrUserNotFound)

	_, err := svc.Profile(ctx, u.UserID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
