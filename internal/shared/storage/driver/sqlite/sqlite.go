// Package sqlite SQLite 数据库驱动
//
// 提供 SQLite 连接管理、方言实现和自动 Schema 迁移。
// 适用于开发、测试和轻量级部署场景。
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"music-catalog/internal/shared/storage/dbutil"

	_ "modernc.org/sqlite"
)

// Dialect SQLite 方言实现
type Dialect struct{}

var _ dbutil.Dialect = (*Dialect)(nil)

func (d *Dialect) DriverType() dbutil.DriverType {
	return dbutil.DriverSQLite
}

func (d *Dialect) Rebind(query string) string {
	return dbutil.RebindToQuestion(query)
}

func (d *Dialect) CurrentTimestamp() string {
	return "datetime('now')"
}

// IsUniqueViolation SQLite 的唯一键冲突以约束错误文本上报
// （modernc.org/sqlite 错误码 1555/2067 对应 "UNIQUE constraint failed"）
func (d *Dialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (d *Dialect) AutoMigrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Open 创建 SQLite 数据库连接
// dsn 示例: "file:catalog.db?cache=shared&mode=rwc" 或 ":memory:"
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite 优化设置
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return db, nil
}

// NewDialect 创建 SQLite 方言
func NewDialect() *Dialect {
	return &Dialect{}
}

// schema SQLite 完整建表语句（等价于 PostgreSQL 迁移文件）
// 列名是 DAL 与存储之间的契约，不可改动。
const schema = `
-- users
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY AUTOINCREMENT,
    username VARCHAR(50) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    full_name VARCHAR(100),
    date_of_birth DATE,
    gender VARCHAR(20),
    profile_picture_url TEXT,
    subscription_type VARCHAR(20) NOT NULL DEFAULT 'Free',
    is_verified BOOLEAN NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    last_login DATETIME
);

-- songs
CREATE TABLE IF NOT EXISTS songs (
    song_id INTEGER PRIMARY KEY AUTOINCREMENT,
    song_title VARCHAR(200) NOT NULL,
    album_id INTEGER,
    artist_id INTEGER NOT NULL,
    duration_seconds INTEGER NOT NULL,
    audio_file_url TEXT NOT NULL,
    audio_quality VARCHAR(20) NOT NULL DEFAULT 'High',
    track_number INTEGER,
    disc_number INTEGER NOT NULL DEFAULT 1,
    release_date DATE,
    lyrics TEXT,
    language VARCHAR(50),
    explicit_content BOOLEAN NOT NULL DEFAULT 0,
    is_premium_only BOOLEAN NOT NULL DEFAULT 0,
    play_count INTEGER NOT NULL DEFAULT 0,
    like_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist_id);
CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album_id);
CREATE INDEX IF NOT EXISTS idx_songs_play_count ON songs(play_count DESC);
`
