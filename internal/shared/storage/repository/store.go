// Package repository 数据库无关的数据访问层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
//
// 每个操作在调用生命周期内只占用一个池化连接，database/sql 保证
// 连接在所有退出路径（成功、空结果、错误）上都被释放。
// 所有查询参数按位置绑定，绝不拼接进 SQL 文本。
package repository

import (
	"database/sql"

	"music-catalog/internal/shared/storage"
	"music-catalog/internal/shared/storage/dbutil"
)

// Store 通用存储实现
// 实现了 storage.PersistentStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建通用存储
//
// 连接池 db 由调用方构造并注入，Store 不持有任何包级全局状态，
// 测试可以为每次运行注入隔离的实例。
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接池（排空并关闭所有池化连接）
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// now 返回当前时间戳 SQL 表达式
func (s *Store) now() string {
	return s.dialect.CurrentTimestamp()
}
