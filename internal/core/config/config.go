package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int    `mapstructure:"idle_timeout_sec"`
}

type App struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	HTTP  HTTP   `mapstructure:"http"`
	Admin HTTP   `mapstructure:"admin"` // cmd/admin 独立监听
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"` // 非空则额外写文件并切割
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
}

// Auth 路由组鉴权策略：allow_all（默认，全部放行）或 jwt
// Rules: 区域 -> 允许的角色；空列表表示任意已登录用户
type Auth struct {
	Policy    string              `mapstructure:"policy"`
	Rules     map[string][]string `mapstructure:"rules"`
	Bootstrap Bootstrap           `mapstructure:"bootstrap"`
}

// Bootstrap 启动时确保存在的 CENTER 账号；jwt 策略下新库只能靠它拿到第一个 admin token
type Bootstrap struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Password struct {
	Hasher string `mapstructure:"hasher"` // plain / bcrypt / argon2id
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

// Stats 统计模式：scan 每次全表扫描；redis 增量计数
type Stats struct {
	Mode      string `mapstructure:"mode"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Notify struct {
	OnLifecycle bool `mapstructure:"on_lifecycle"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type Limits struct {
	RPS          float64 `mapstructure:"rps"`
	Burst        int     `mapstructure:"burst"`
	PerIP        bool    `mapstructure:"per_ip"`
	Concurrency  int64   `mapstructure:"concurrency"`
	MaxBodyBytes int64   `mapstructure:"max_body_bytes"`
	TimeoutSec   int     `mapstructure:"timeout_sec"`
}

type Config struct {
	App      App      `mapstructure:"app"`
	Log      Log      `mapstructure:"log"`
	JWT      JWT      `mapstructure:"jwt"`
	Auth     Auth     `mapstructure:"auth"`
	Password Password `mapstructure:"password"`
	DB       DB       `mapstructure:"db"`
	Redis    Redis    `mapstructure:"redis"`
	Stats    Stats    `mapstructure:"stats"`
	Notify   Notify   `mapstructure:"notify"`
	CORS     CORS     `mapstructure:"cors"`
	Limits   Limits   `mapstructure:"limits"`
}

const defaultPath = "./configs/config.local.yaml"

// Load 读取 yaml，APP_ 前缀环境变量覆盖（app.http.port -> APP_APP_HTTP_PORT，db.dsn -> APP_DB_DSN）。
// 未显式指定路径且默认文件不存在时只用默认值 + 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = defaultPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "waste-recycling-tracker")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8081)
	v.SetDefault("app.http.read_timeout_sec", 5)
	v.SetDefault("app.http.write_timeout_sec", 10)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8082)
	v.SetDefault("app.admin.read_timeout_sec", 5)
	v.SetDefault("app.admin.write_timeout_sec", 10)
	v.SetDefault("app.admin.idle_timeout_sec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "waste-recycling-tracker")
	v.SetDefault("jwt.access_token_ttl_min", 120)

	v.SetDefault("auth.policy", "allow_all")
	v.SetDefault("auth.rules", map[string][]string{
		"family":        {"FAMILY"},
		"center":        {"CENTER"},
		"admin":         {"CENTER"},
		"statistics":    {},
		"notifications": {},
	})
	v.SetDefault("auth.bootstrap.username", "")
	v.SetDefault("auth.bootstrap.password", "")
	v.SetDefault("password.hasher", "plain")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:waste.db?_pragma=foreign_keys(1)")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stats.mode", "scan")
	v.SetDefault("stats.key_prefix", "wrt:stats")
	v.SetDefault("notify.on_lifecycle", true)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.per_ip", false)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.max_body_bytes", 1<<20)
	v.SetDefault("limits.timeout_sec", 10)
}
