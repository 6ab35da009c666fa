// Package main API Server 入口
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/apiserver/server"
	"music-catalog/internal/config"
	"music-catalog/internal/shared/session"
	redissession "music-catalog/internal/shared/session/redis"
	"music-catalog/internal/shared/storage/dbutil"
	"music-catalog/internal/shared/storage/driver/postgres"
	sqlitedriver "music-catalog/internal/shared/storage/driver/sqlite"
	"music-catalog/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化持久化存储（连接池在此构造并显式注入）
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to database [driver=%s]", cfg.DatabaseDriver)

	// 初始化会话存储：配置了 Redis 走 Redis，否则进程内存储
	sessions, err := openSessions(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to session store: %v", err)
	}
	defer sessions.Close()

	authCfg := auth.Config{
		CookieName:   cfg.Session.CookieName,
		SessionTTL:   cfg.Session.TTL,
		CookieSecure: cfg.Session.CookieSecure,
	}
	h := server.NewHandler(store, sessions, authCfg)

	// 周期刷新业务量指标
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.StartGaugeUpdater(ctx, time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 按配置的驱动打开数据库并构建存储层
//
// PostgreSQL 依赖外部迁移建表；SQLite 自动迁移（开发/轻量部署）。
func openStore(cfg *config.Config) (*repository.Store, error) {
	var (
		db      *sql.DB
		dialect dbutil.Dialect
		err     error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		pool := postgres.PoolConfig{
			MaxOpenConns:    cfg.DatabasePool.MaxOpenConns,
			MaxIdleConns:    cfg.DatabasePool.MaxIdleConns,
			ConnMaxLifetime: cfg.DatabasePool.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.DatabasePool.ConnMaxIdleTime,
		}
		db, err = postgres.Open(cfg.DatabaseURL, pool)
		if err != nil {
			return nil, err
		}
		dialect = postgres.NewDialect()

	case "sqlite":
		db, err = sqlitedriver.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		dialect = sqlitedriver.NewDialect()

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.DatabaseDriver)
	}

	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return repository.NewStore(db, dialect), nil
}

// openSessions 打开会话存储
func openSessions(cfg *config.Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		log.Println("[Session] Redis not configured, using in-process session store")
		return session.NewMemoryStore(), nil
	}
	return redissession.NewStoreFromURL(cfg.RedisURL, cfg.Session.TTL)
}
