// Package postgres PostgreSQL 数据库驱动
//
// 提供 PostgreSQL 连接管理和方言实现。
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"music-catalog/internal/shared/storage/dbutil"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PoolConfig 连接池配置（外部注入，不在代码中硬编码）
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig 返回默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// Dialect PostgreSQL 方言实现
type Dialect struct{}

var _ dbutil.Dialect = (*Dialect)(nil)

func (d *Dialect) DriverType() dbutil.DriverType {
	return dbutil.DriverPostgres
}

func (d *Dialect) Rebind(query string) string {
	return dbutil.RebindToPositional(query)
}

func (d *Dialect) CurrentTimestamp() string {
	return "NOW()"
}

// IsUniqueViolation PostgreSQL 错误码 23505 = unique_violation
func (d *Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (d *Dialect) AutoMigrate(db *sql.DB) error {
	// PostgreSQL 使用外部迁移文件（deployments/migrations），不在代码中自动建表
	return nil
}

// Open 创建 PostgreSQL 数据库连接池
//
// 连接池边界和生命周期由配置注入；初始化失败对进程是致命的，
// 由调用方决定退出。
func Open(databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// NewDialect 创建 PostgreSQL 方言
func NewDialect() *Dialect {
	return &Dialect{}
}
