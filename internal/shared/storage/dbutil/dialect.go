// Package dbutil 提供数据库方言抽象和工具函数
//
// 通过 Dialect 接口屏蔽不同数据库（PostgreSQL、SQLite）的 SQL 差异，
// 使 repository 层可以编写与数据库无关的业务逻辑。
package dbutil

import (
	"database/sql"
	"regexp"
)

// DriverType 数据库驱动类型
type DriverType string

const (
	DriverPostgres DriverType = "postgres"
	DriverSQLite   DriverType = "sqlite"
)

// Dialect 数据库方言接口
//
// 不同数据库的 SQL 语法差异通过该接口屏蔽：
//   - 占位符：PostgreSQL 用 $1, $2；SQLite 用 ?
//   - 时间函数：PostgreSQL 用 NOW()；SQLite 用 datetime('now')
//   - 唯一键冲突的错误识别方式各驱动不同
type Dialect interface {
	// DriverType 返回驱动类型标识
	DriverType() DriverType

	// Rebind 将 PostgreSQL 风格的占位符 ($1, $2, ...) 转换为目标数据库的占位符格式
	Rebind(query string) string

	// CurrentTimestamp 返回当前时间戳的 SQL 表达式
	CurrentTimestamp() string

	// IsUniqueViolation 判断错误是否为唯一键冲突
	IsUniqueViolation(err error) bool

	// AutoMigrate 自动创建/迁移数据库 Schema（PostgreSQL 使用外部迁移文件，返回 nil）
	AutoMigrate(db *sql.DB) error
}

// pgPlaceholderRe 匹配 PostgreSQL 风格占位符 $1, $2, ...
var pgPlaceholderRe = regexp.MustCompile(`\$(\d+)`)

// RebindToPositional 保持 $N 占位符不变（PostgreSQL 专用）
func RebindToPositional(query string) string {
	return query
}

// RebindToQuestion 将 $N 占位符转换为 ? （SQLite 专用）
func RebindToQuestion(query string) string {
	return pgPlaceholderRe.ReplaceAllString(query, "?")
}
