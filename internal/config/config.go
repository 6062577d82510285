package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"etsy_dashboard/internal/service"
	"etsy_dashboard/internal/task"
	"etsy_dashboard/pkg/etsy"
)

// Config 应用配置
// 加载顺序: .env -> config.yaml -> 环境变量
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Etsy     EtsyConfig     `mapstructure:"etsy"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug / release / test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	LogLevel        string        `mapstructure:"log_level"` // silent / error / warn / info
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EtsyConfig Etsy 开放平台
type EtsyConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	TokenURL    string        `mapstructure:"token_url"`
	AuthURL     string        `mapstructure:"auth_url"`
	RedirectURL string        `mapstructure:"redirect_url"`
	SuccessURL  string        `mapstructure:"success_url"`
	Scopes      []string      `mapstructure:"scopes"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retry_count"`

	// 单店铺限速
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	RefreshBuffer     time.Duration `mapstructure:"refresh_buffer"`
}

// SyncConfig 定时同步
type SyncConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Spec        string        `mapstructure:"spec"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RunOnStart  bool          `mapstructure:"run_on_start"`
	PageLimit   int           `mapstructure:"page_limit"`

	// 手动同步冷却，键为 all / listings / orders
	Cooldowns map[string]time.Duration `mapstructure:"cooldowns"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / console
}

// 环境变量与配置项的对应关系
var envBindings = map[string]string{
	"server.port":        "SERVER_PORT",
	"server.mode":        "GIN_MODE",
	"database.dsn":       "DATABASE_DSN",
	"database.log_level": "DATABASE_LOG_LEVEL",
	"etsy.api_key":       "ETSY_API_KEY",
	"etsy.base_url":      "ETSY_BASE_URL",
	"etsy.token_url":     "ETSY_TOKEN_URL",
	"etsy.auth_url":      "ETSY_AUTH_URL",
	"etsy.redirect_url":  "ETSY_REDIRECT_URL",
	"etsy.success_url":   "ETSY_SUCCESS_URL",
	"sync.enabled":       "SYNC_ENABLED",
	"sync.spec":          "SYNC_SPEC",
	"sync.concurrency":   "SYNC_CONCURRENCY",
	"log.level":          "LOG_LEVEL",
	"log.format":         "LOG_FORMAT",
}

// Load 读取配置
// configPath 为空时在当前目录与 ./config 下查找 config.yaml，文件不存在不报错
func Load(configPath string) (*Config, error) {
	// 本地开发读取 .env，生产环境直接使用环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("etsy.base_url", etsy.DefaultBaseURL)
	v.SetDefault("etsy.auth_url", service.DefaultAuthURL)
	v.SetDefault("etsy.scopes", service.DefaultScopes)
	v.SetDefault("etsy.timeout", 30*time.Second)
	v.SetDefault("etsy.retry_count", 3)
	v.SetDefault("etsy.requests_per_second", 5)
	v.SetDefault("etsy.burst", 5)
	v.SetDefault("etsy.refresh_buffer", service.DefaultRefreshBuffer)

	def := task.DefaultSyncTaskConfig()
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.spec", def.Spec)
	v.SetDefault("sync.concurrency", def.Concurrency)
	v.SetDefault("sync.timeout", def.Timeout)
	v.SetDefault("sync.run_on_start", def.RunOnStart)
	v.SetDefault("sync.page_limit", etsy.DefaultPageLimit)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("配置缺失: DATABASE_DSN")
	}
	if c.Etsy.APIKey == "" {
		return errors.New("配置缺失: ETSY_API_KEY")
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("sync.concurrency 必须大于 0，当前 %d", c.Sync.Concurrency)
	}
	return nil
}

// ==================== 组件配置 ====================

// EtsyClient 网关配置
func (c *Config) EtsyClient() etsy.Config {
	return etsy.Config{
		APIKey:            c.Etsy.APIKey,
		BaseURL:           c.Etsy.BaseURL,
		TokenURL:          c.Etsy.TokenURL,
		AuthURL:           c.Etsy.AuthURL,
		RedirectURL:       c.Etsy.RedirectURL,
		Scopes:            c.Etsy.Scopes,
		Timeout:           c.Etsy.Timeout,
		RetryCount:        c.Etsy.RetryCount,
		RequestsPerSecond: c.Etsy.RequestsPerSecond,
		Burst:             c.Etsy.Burst,
	}
}

// Token Token 管理配置
func (c *Config) Token() service.TokenConfig {
	return service.TokenConfig{
		ClientID:      c.Etsy.APIKey,
		TokenURL:      c.EtsyClient().TokenEndpoint(),
		RefreshBuffer: c.Etsy.RefreshBuffer,
	}
}

// Auth 授权配置
func (c *Config) Auth() service.AuthConfig {
	return service.AuthConfig{
		ClientID:    c.Etsy.APIKey,
		AuthURL:     c.Etsy.AuthURL,
		TokenURL:    c.EtsyClient().TokenEndpoint(),
		RedirectURL: c.Etsy.RedirectURL,
		Scopes:      c.Etsy.Scopes,
	}
}

// SyncTask 定时任务配置
func (c *Config) SyncTask() task.SyncTaskConfig {
	return task.SyncTaskConfig{
		Spec:        c.Sync.Spec,
		Concurrency: c.Sync.Concurrency,
		Timeout:     c.Sync.Timeout,
		RunOnStart:  c.Sync.RunOnStart,
	}
}
