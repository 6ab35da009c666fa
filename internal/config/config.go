// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string     `yaml:"driver"` // "postgres" 或 "sqlite"
	Path     string     `yaml:"path"`   // SQLite 文件路径
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port"`
	User     string     `yaml:"user"`
	Password string     `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string     `yaml:"name"`
	SSLMode  string     `yaml:"sslmode"`
	Pool     PoolConfig `yaml:"pool"`
}

// PoolConfig 数据库连接池参数
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	CookieName   string        `yaml:"cookie_name"`
	TTL          time.Duration `yaml:"ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	DatabaseDriver string // "postgres" 或 "sqlite"
	DatabaseURL    string // postgres 连接串；sqlite 为文件路径
	DatabasePool   PoolConfig
	RedisURL       string // 为空则回退到进程内会话存储
	APIPort        string
	Session        SessionConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Database.Password = os.Getenv("DB_PASSWORD")

	// 构建最终配置
	cfg := &Config{
		Env:            env,
		DatabaseDriver: yamlCfg.Database.Driver,
		DatabaseURL:    buildDatabaseURL(yamlCfg.Database),
		DatabasePool:   yamlCfg.Database.Pool,
		APIPort:        getEnv("API_PORT", yamlCfg.Server.Port),
		Session:        yamlCfg.Session,
	}

	if yamlCfg.Redis.Enabled {
		cfg.RedisURL = getEnv("REDIS_URL", buildRedisURL(yamlCfg.Redis))
	} else {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	// DATABASE_URL 环境变量直接覆盖（部署时注入完整连接串）
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "music_catalog.db",
			Host:    "localhost",
			Port:    5432,
			User:    "music",
			Name:    "music_catalog",
			SSLMode: "disable",
			Pool: PoolConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 10 * time.Minute,
			},
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Session: SessionConfig{
			CookieName: "session_token",
			TTL:        24 * time.Hour,
		},
	}

	// 2. 加载 {env}.yaml（覆盖默认值）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	cfg.validate()
	return cfg
}

// buildDatabaseURL 构建数据库连接串
// SQLite 直接返回文件路径，PostgreSQL 构建标准 URL。
func buildDatabaseURL(db DatabaseConfig) string {
	if db.Driver == "sqlite" {
		return db.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.Name, db.SSLMode)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Redis: %s}",
		c.Env, c.DatabaseDriver, maskPassword(c.DatabaseURL), c.RedisURL)
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// validate 验证并填充默认值
func (y *YAMLConfig) validate() {
	if y.Database.Driver == "" {
		y.Database.Driver = "sqlite"
	}
	if y.Database.Pool.MaxOpenConns <= 0 {
		y.Database.Pool.MaxOpenConns = 25
	}
	if y.Database.Pool.MaxIdleConns <= 0 {
		y.Database.Pool.MaxIdleConns = 5
	}
	if y.Database.Pool.ConnMaxLifetime == 0 {
		y.Database.Pool.ConnMaxLifetime = 5 * time.Minute
	}
	if y.Database.Pool.ConnMaxIdleTime == 0 {
		y.Database.Pool.ConnMaxIdleTime = 10 * time.Minute
	}
	if y.Session.CookieName == "" {
		y.Session.CookieName = "session_token"
	}
	if y.Session.TTL == 0 {
		y.Session.TTL = 24 * time.Hour
	}
	if y.Server.Port == "" {
		y.Server.Port = "8080"
	}
}
