// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（通用 SQL 实现）+ driver/{postgres,sqlite}
//   - 初始化时通过依赖注入传入实现，连接池不是进程级全局状态
package storage

import (
	"context"

	"music-catalog/internal/shared/model"
)

// UserStore 用户存储接口
//
// 查找方法在实体不存在时返回 (nil, nil)，调用方据此区分
// “不存在”与“存储故障”。
type UserStore interface {
	// CreateUser 创建用户并返回生成的主键；零行写入或无主键产出时返回错误
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdateUser 整行更新，返回是否命中
	UpdateUser(ctx context.Context, user *model.User) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64) (bool, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error)
	ListUsersBySubscription(ctx context.Context, sub model.SubscriptionType) ([]*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// SongStore 歌曲存储接口
type SongStore interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSong(ctx context.Context, id int64) (*model.Song, error)
	ListSongs(ctx context.Context, limit, offset int) ([]*model.Song, error)
	ListSongsByArtist(ctx context.Context, artistID int64) ([]*model.Song, error)
	ListSongsByAlbum(ctx context.Context, albumID int64) ([]*model.Song, error)
	SearchSongsByTitle(ctx context.Context, query string, limit int) ([]*model.Song, error)
	ListTopSongs(ctx context.Context, limit int) ([]*model.Song, error)
	ListRecentReleases(ctx context.Context, limit int) ([]*model.Song, error)
	UpdateSong(ctx context.Context, song *model.Song) (bool, error)
	// IncrementPlayCount 播放计数 +1，返回是否命中
	IncrementPlayCount(ctx context.Context, id int64) (bool, error)
	IncrementLikeCount(ctx context.Context, id int64) (bool, error)
	// DecrementLikeCount 点赞计数 -1，计数为 0 时不生效（返回 false, nil）
	DecrementLikeCount(ctx context.Context, id int64) (bool, error)
	DeleteSong(ctx context.Context, id int64) (bool, error)
	CountSongs(ctx context.Context) (int64, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	SongStore
	Close() error
}
