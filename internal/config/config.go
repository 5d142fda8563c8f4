package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultQuery 固定的钻库数据提取指令
const DefaultQuery = "执行excel钻库数据提取"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Dify   DifyConfig   `mapstructure:"dify"`
	Upload UploadConfig `mapstructure:"upload"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DifyConfig 上游文件上传与对话接口
type DifyConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	User     string        `mapstructure:"user"`
	Query    string        `mapstructure:"query"`
	FileMIME string        `mapstructure:"file_mime"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type UploadConfig struct {
	FormField string `mapstructure:"form_field"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8010)
	v.SetDefault("server.read_timeout", 2*time.Minute)
	// 上传与阻塞式对话各自最多占用 dify.timeout
	v.SetDefault("server.write_timeout", 11*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("dify.base_url", "http://10.2.90.20/v1")
	v.SetDefault("dify.api_key", "")
	v.SetDefault("dify.user", "abc-123")
	v.SetDefault("dify.query", DefaultQuery)
	v.SetDefault("dify.file_mime", "document/xls|xlsx")
	v.SetDefault("dify.timeout", 5*time.Minute)

	v.SetDefault("upload.form_field", "file")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 43200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 读取配置文件，configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 与插件端保持一致，DIFY_* 环境变量优先于配置文件
	if url := os.Getenv("DIFY_API_URL"); url != "" {
		cfg.Dify.BaseURL = url
	}
	if apiKey := os.Getenv("DIFY_API_KEY"); apiKey != "" {
		cfg.Dify.APIKey = apiKey
	}
	if user := os.Getenv("DIFY_USER"); user != "" {
		cfg.Dify.User = user
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Dify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Dify.BaseURL), "/")
	c.Dify.APIKey = strings.TrimSpace(c.Dify.APIKey)
	c.Dify.User = strings.TrimSpace(c.Dify.User)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Dify.BaseURL == "" {
		errs = append(errs, errors.New("dify.base_url is required"))
	}
	if c.Dify.APIKey == "" {
		errs = append(errs, errors.New("dify.api_key is required (or set DIFY_API_KEY)"))
	}
	if c.Dify.User == "" {
		errs = append(errs, errors.New("dify.user is required"))
	}
	if strings.TrimSpace(c.Dify.Query) == "" {
		errs = append(errs, errors.New("dify.query is required"))
	}
	if strings.TrimSpace(c.Dify.FileMIME) == "" {
		errs = append(errs, errors.New("dify.file_mime is required"))
	}
	if c.Dify.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("dify.timeout must be positive: %s", c.Dify.Timeout))
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("cors.allowed_origins must not be empty"))
	}
	if c.Upload.FormField == "" {
		errs = append(errs, errors.New("upload.form_field is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
