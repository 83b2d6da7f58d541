package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	ReadTimeoutSec   int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec  int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec   int    `mapstructure:"idle_timeout_sec"`
	RequestTimeoutMs int    `mapstructure:"request_timeout_ms"` // 0 关闭
	MaxBodyBytes     int64  `mapstructure:"max_body_bytes"`
	RateLimitRPS     int    `mapstructure:"rate_limit_rps"` // 每 IP，0 关闭
	RateLimitBurst   int    `mapstructure:"rate_limit_burst"`
	MaxInFlight      int64  `mapstructure:"max_in_flight"` // 0 关闭
}

func (h HTTP) Addr() string { return fmt.Sprintf("%s:%d", h.Host, h.Port) }

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	HTTP HTTP   `mapstructure:"http"`
}

type Rotate struct {
	Enabled    bool   `mapstructure:"enabled"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	JSON   bool   `mapstructure:"json"`
	Rotate Rotate `mapstructure:"rotate"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
	LeewaySec         int    `mapstructure:"leeway_sec"`
}

func (j JWT) TTL() time.Duration    { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration { return time.Duration(j.LeewaySec) * time.Second }

type Auth struct {
	BcryptCost          int      `mapstructure:"bcrypt_cost"`
	PublicRead          bool     `mapstructure:"public_read"`
	DistinguishInactive bool     `mapstructure:"distinguish_inactive"`
	CredentialOrder     []string `mapstructure:"credential_order"` // token / api_key
}

type DB struct {
	Driver             string `mapstructure:"driver"` // memory / sqlite / postgres / mysql
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	Migrate            string `mapstructure:"migrate"` // auto / goose / none
	LogLevel           string `mapstructure:"log_level"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
	MaxAgeHours  int      `mapstructure:"max_age_hours"`
}

type Config struct {
	App  App  `mapstructure:"app"`
	Log  Log  `mapstructure:"log"`
	JWT  JWT  `mapstructure:"jwt"`
	Auth Auth `mapstructure:"auth"`
	DB   DB   `mapstructure:"db"`
	CORS CORS `mapstructure:"cors"`
}

var ErrMissingSecret = errors.New("jwt.secret is required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gin-user-service")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout_sec", 10)
	v.SetDefault("app.http.write_timeout_sec", 15)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.http.request_timeout_ms", 5000)
	v.SetDefault("app.http.max_body_bytes", 1<<20)
	v.SetDefault("app.http.rate_limit_rps", 0)
	v.SetDefault("app.http.rate_limit_burst", 20)
	v.SetDefault("app.http.max_in_flight", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enabled", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.max_size_mb", 100)
	v.SetDefault("log.rotate.max_backups", 7)
	v.SetDefault("log.rotate.max_age_days", 30)
	v.SetDefault("log.rotate.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "gin-user-service")
	v.SetDefault("jwt.access_token_ttl_min", 60)
	v.SetDefault("jwt.leeway_sec", 0)

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.public_read", true)
	v.SetDefault("auth.distinguish_inactive", false)
	v.SetDefault("auth.credential_order", []string{"token", "api_key"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "users.db")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.max_idle_conns", 0)
	v.SetDefault("db.conn_max_lifetime_min", 0)
	v.SetDefault("db.migrate", "auto")
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.max_age_hours", 12)
}

// Load 读取 YAML 配置；path 为空时取 CONFIG_PATH，再退回 ./configs/config.local.yaml。
// 配置文件不存在时只用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil || !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingSecret
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("jwt.access_token_ttl_min must be > 0, got %d", c.JWT.AccessTokenTTLMin)
	}
	for _, m := range c.Auth.CredentialOrder {
		if m != "token" && m != "api_key" {
			return fmt.Errorf("auth.credential_order: unknown method %q", m)
		}
	}
	switch c.DB.Driver {
	case "memory", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("db.driver: unknown driver %q", c.DB.Driver)
	}
	return nil
}
