package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/storage"
	sqlitedriver "music-catalog/internal/shared/storage/driver/sqlite"
)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	// 内存库按连接隔离，限制单连接保证所有查询命中同一库
	db.SetMaxOpenConns(1)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func int64Ptr(n int64) *int64 { return &n }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func mustCreateUser(t *testing.T, s *Store, username, email string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		IsActive:     true,
	}
	id, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	got, err := s.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func mustCreateSong(t *testing.T, s *Store, song *model.Song) *model.Song {
	t.Helper()
	id, err := s.CreateSong(context.Background(), song)
	require.NoError(t, err)
	got, err := s.GetSong(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

// ============================================================================
// User 测试
// ============================================================================

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash-1",
		FullName:     strPtr("Alice A"),
		Gender:       strPtr("female"),
		DateOfBirth:  datePtr(1990, time.March, 14),
		IsActive:     true,
	}
	id, err := s.CreateUser(ctx, u)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash-1", got.PasswordHash)
	assert.Equal(t, model.SubscriptionFree, got.SubscriptionType)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsVerified)
	assert.Nil(t, got.LastLogin)
	require.NotNil(t, got.FullName)
	assert.Equal(t, "Alice A", *got.FullName)
	assert.False(t, got.CreatedAt.IsZero())

	// 按邮箱/用户名查找
	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.UserID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.UserID)

	// 不存在返回 (nil, nil)
	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// 更新
	got.FullName = strPtr("Alice Updated")
	got.SubscriptionType = model.SubscriptionPremium
	ok, err := s.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", *got.FullName)
	assert.Equal(t, model.SubscriptionPremium, got.SubscriptionType)

	// 删除
	ok, err = s.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 再次删除命中零行
	ok, err = s.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "bob", "bob@example.com")

	// 邮箱重复
	_, err := s.CreateUser(ctx, &model.User{Username: "bob2", Email: "bob@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDuplicate))

	// 用户名重复
	_, err = s.CreateUser(ctx, &model.User{Username: "bob", Email: "bob2@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDuplicate))
}

func TestUserLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "carol", "carol@example.com")
	require.Nil(t, u.LastLogin)

	ok, err := s.UpdateLastLogin(ctx, u.UserID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetUserByID(ctx, u.UserID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)

	// 不存在的用户
	ok, err = s.UpdateLastLogin(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		mustCreateUser(t, s, name, name+"@example.com")
	}

	page1, err := s.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	page2, err := s.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	page3, err := s.ListUsers(ctx, 2, 4)
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 2)
	assert.Len(t, page3, 1)

	// 分页互不重叠、覆盖全部
	seen := map[int64]bool{}
	for _, u := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[u.UserID], "user %d appears twice", u.UserID)
		seen[u.UserID] = true
	}
	assert.Len(t, seen, 5)

	// 超出末页返回空
	beyond, err := s.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestUsersBySubscription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	free := mustCreateUser(t, s, "f1", "f1@example.com")
	prem := mustCreateUser(t, s, "p1", "p1@example.com")
	prem.SubscriptionType = model.SubscriptionPremium
	_, err := s.UpdateUser(ctx, prem)
	require.NoError(t, err)

	// 停用的用户不计入
	inactive := mustCreateUser(t, s, "f2", "f2@example.com")
	inactive.IsActive = false
	_, err = s.UpdateUser(ctx, inactive)
	require.NoError(t, err)

	freeUsers, err := s.ListUsersBySubscription(ctx, model.SubscriptionFree)
	require.NoError(t, err)
	require.Len(t, freeUsers, 1)
	assert.Equal(t, free.UserID, freeUsers[0].UserID)

	premUsers, err := s.ListUsersBySubscription(ctx, model.SubscriptionPremium)
	require.NoError(t, err)
	require.Len(t, premUsers, 1)
	assert.Equal(t, prem.UserID, premUsers[0].UserID)
}

// ============================================================================
// Song 测试
// ============================================================================

func TestSongCRUDAndDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	song := mustCreateSong(t, s, &model.Song{
		SongTitle:       "Midnight Drive",
		ArtistID:        7,
		DurationSeconds: 215,
		AudioFileURL:    "https://cdn.example.com/audio/1.mp3",
	})

	// 入库默认值
	assert.Equal(t, model.AudioQualityHigh, song.AudioQuality)
	assert.Equal(t, 1, song.DiscNumber)
	assert.Equal(t, int64(0), song.PlayCount)
	assert.Equal(t, int64(0), song.LikeCount)
	assert.Nil(t, song.AlbumID)
	assert.Nil(t, song.ReleaseDate)
	assert.False(t, song.CreatedAt.IsZero())

	// 更新元数据
	song.SongTitle = "Midnight Drive (Remix)"
	song.Lyrics = strPtr("la la la")
	song.AudioQuality = model.AudioQualityLossless
	ok, err := s.UpdateSong(ctx, song)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetSong(ctx, song.SongID)
	require.NoError(t, err)
	assert.Equal(t, "Midnight Drive (Remix)", got.SongTitle)
	assert.Equal(t, model.AudioQualityLossless, got.AudioQuality)
	require.NotNil(t, got.Lyrics)
	assert.Equal(t, "la la la", *got.Lyrics)

	// 不存在返回 (nil, nil)
	missing, err := s.GetSong(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// 删除
	ok, err = s.DeleteSong(ctx, song.SongID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteSong(ctx, song.SongID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSongCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	song := mustCreateSong(t, s, &model.Song{
		SongTitle: "Counter", ArtistID: 1, DurationSeconds: 100,
		AudioFileURL: "https://cdn.example.com/audio/c.mp3",
	})

	for i := 0; i < 3; i++ {
		ok, err := s.IncrementPlayCount(ctx, song.SongID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := s.IncrementLikeCount(ctx, song.SongID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetSong(ctx, song.SongID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.PlayCount)
	assert.Equal(t, int64(1), got.LikeCount)

	// 递减到零
	ok, err = s.DecrementLikeCount(ctx, song.SongID)
	require.NoError(t, err)
	assert.True(t, ok)

	// 零计数时递减是无操作
	ok, err = s.DecrementLikeCount(ctx, song.SongID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = s.GetSong(ctx, song.SongID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LikeCount)

	// 不存在的歌曲
	ok, err = s.IncrementPlayCount(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSongSearchOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateSong(t, s, &model.Song{SongTitle: "Summer Nights", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})
	b := mustCreateSong(t, s, &model.Song{SongTitle: "Summer Rain", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})
	mustCreateSong(t, s, &model.Song{SongTitle: "Winter Song", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})

	// b 播放量更高，应排在前面
	for i := 0; i < 5; i++ {
		_, err := s.IncrementPlayCount(ctx, b.SongID)
		require.NoError(t, err)
	}
	_, err := s.IncrementPlayCount(ctx, a.SongID)
	require.NoError(t, err)

	results, err := s.SearchSongsByTitle(ctx, "Summer", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, b.SongID, results[0].SongID)
	assert.Equal(t, a.SongID, results[1].SongID)

	// limit 生效
	results, err = s.SearchSongsByTitle(ctx, "Summer", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b.SongID, results[0].SongID)

	// 无命中返回空集
	results, err = s.SearchSongsByTitle(ctx, "Nothing Here", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSongsByArtistAndAlbum(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := mustCreateSong(t, s, &model.Song{
		SongTitle: "Old Single", ArtistID: 3, DurationSeconds: 100, AudioFileURL: "u",
		ReleaseDate: datePtr(2020, time.January, 1),
	})
	newer := mustCreateSong(t, s, &model.Song{
		SongTitle: "New Single", ArtistID: 3, DurationSeconds: 100, AudioFileURL: "u",
		ReleaseDate: datePtr(2024, time.June, 1),
	})
	mustCreateSong(t, s, &model.Song{SongTitle: "Other Artist", ArtistID: 4, DurationSeconds: 100, AudioFileURL: "u"})

	byArtist, err := s.ListSongsByArtist(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byArtist, 2)
	assert.Equal(t, newer.SongID, byArtist[0].SongID)
	assert.Equal(t, older.SongID, byArtist[1].SongID)

	// 专辑曲目按音轨号
	t2 := mustCreateSong(t, s, &model.Song{
		SongTitle: "Track Two", ArtistID: 5, DurationSeconds: 100, AudioFileURL: "u",
		AlbumID: int64Ptr(9), TrackNumber: intPtr(2),
	})
	t1 := mustCreateSong(t, s, &model.Song{
		SongTitle: "Track One", ArtistID: 5, DurationSeconds: 100, AudioFileURL: "u",
		AlbumID: int64Ptr(9), TrackNumber: intPtr(1),
	})

	byAlbum, err := s.ListSongsByAlbum(ctx, 9)
	require.NoError(t, err)
	require.Len(t, byAlbum, 2)
	assert.Equal(t, t1.SongID, byAlbum[0].SongID)
	assert.Equal(t, t2.SongID, byAlbum[1].SongID)
}

func TestSongCharts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hot := mustCreateSong(t, s, &model.Song{SongTitle: "Hot", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})
	warm := mustCreateSong(t, s, &model.Song{SongTitle: "Warm", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})
	mustCreateSong(t, s, &model.Song{SongTitle: "Cold", ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})

	for i := 0; i < 10; i++ {
		_, err := s.IncrementPlayCount(ctx, hot.SongID)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := s.IncrementPlayCount(ctx, warm.SongID)
		require.NoError(t, err)
	}

	top, err := s.ListTopSongs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, hot.SongID, top[0].SongID)
	assert.Equal(t, warm.SongID, top[1].SongID)

	// 新发布按发行日期降序
	latest := mustCreateSong(t, s, &model.Song{
		SongTitle: "Latest", ArtistID: 2, DurationSeconds: 100, AudioFileURL: "u",
		ReleaseDate: datePtr(2025, time.August, 1),
	})
	mustCreateSong(t, s, &model.Song{
		SongTitle: "Earlier", ArtistID: 2, DurationSeconds: 100, AudioFileURL: "u",
		ReleaseDate: datePtr(2023, time.February, 1),
	})

	recent, err := s.ListRecentReleases(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, latest.SongID, recent[0].SongID)
}

func TestSongPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"s1", "s2", "s3", "s4"} {
		song := mustCreateSong(t, s, &model.Song{SongTitle: title, ArtistID: 1, DurationSeconds: 100, AudioFileURL: "u"})
		ids = append(ids, song.SongID)
	}

	page1, err := s.ListSongs(ctx, 3, 0)
	require.NoError(t, err)
	page2, err := s.ListSongs(ctx, 3, 3)
	require.NoError(t, err)

	require.Len(t, page1, 3)
	require.Len(t, page2, 1)

	// 主键升序的确定性分页
	assert.Equal(t, ids[0], page1[0].SongID)
	assert.Equal(t, ids[1], page1[1].SongID)
	assert.Equal(t, ids[2], page1[2].SongID)
	assert.Equal(t, ids[3], page2[0].SongID)

	count, err := s.CountSongs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
