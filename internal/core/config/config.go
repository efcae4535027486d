package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name        string
	Env         string
	HTTP        HTTP
	StaticDir   string   // 可选：前端构建产物目录
	FrontendURL string   // 邮件中的登录链接
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

func (a App) Development() bool { return a.Env == "" || a.Env == "development" || a.Env == "local" }

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

type Mail struct {
	Provider    string // brevo | smtp | log
	BrevoAPIKey string `mapstructure:"brevoApiKey"`
	BrevoURL    string `mapstructure:"brevoUrl"`
	SenderEmail string
	SenderName  string
	TimeoutSec  int
	SMTP        SMTP
}

type Security struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
	LoginAttempts     int // 每个窗口内允许的登录次数（按 IP）
	LoginWindowMin    int
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Mail     Mail
	Security Security
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bubbletech-pointage")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.frontendUrl", "http://localhost:3000")
	v.SetDefault("app.corsOrigins", []string{"http://localhost:3000"})
	v.SetDefault("app.staticDir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "bubbletech-pointage")
	v.SetDefault("jwt.accessTokenTTLMin", 24*60)

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 10)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlSec", 300)

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.brevoApiKey", "")
	v.SetDefault("mail.brevoUrl", "https://api.brevo.com/v3/smtp/email")
	v.SetDefault("mail.senderEmail", "noreply@bubbletech.be")
	v.SetDefault("mail.senderName", "BubbleTech Pointage")
	v.SetDefault("mail.timeoutSec", 15)
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")

	v.SetDefault("security.rateLimitRPS", 200)
	v.SetDefault("security.rateLimitBurst", 400)
	v.SetDefault("security.maxConcurrent", 300)
	v.SetDefault("security.maxBodyBytes", 10<<20)
	v.SetDefault("security.requestTimeoutSec", 10)
	v.SetDefault("security.loginAttempts", 5)
	v.SetDefault("security.loginWindowMin", 15)
}

// Read 读取配置文件；文件不存在时仅使用默认值 + 环境变量。
func Read(path string) (*Config, error) {
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
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
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

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 characters"))
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q not supported", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	switch c.Mail.Provider {
	case "log":
	case "brevo":
		if c.Mail.BrevoAPIKey == "" {
			errs = append(errs, errors.New("mail.brevoApiKey is required for provider brevo"))
		}
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, errors.New("mail.smtp.host is required for provider smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.provider %q not supported", c.Mail.Provider))
	}
	return errors.Join(errs...)
}
