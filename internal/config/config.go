package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Version     string `env:"VERSION" envDefault:"dev"`
	Timezone    string `env:"TIMEZONE" envDefault:"Local"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		Driver             string `env:"DRIVER" envDefault:"sqlite3"` // sqlite3 或 pgx
		DSN                string `env:"DSN" envDefault:"roster.db"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD" envDefault:"admin123"`
		FullName string `env:"FULL_NAME" envDefault:"Administrator"`
	} `envPrefix:"INITIAL_ADMIN_"`
	Session struct {
		Secret     string `env:"SECRET,required,notEmpty"`
		Expiration int    `env:"EXPIRATION" envDefault:"43200"` // 12 小时
		CookieName string `env:"COOKIE_NAME" envDefault:"__shift_roster_session"`
	} `envPrefix:"SESSION_"`
	Auth struct {
		BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	} `envPrefix:"AUTH_"`
	CSRF struct {
		Enabled bool   `env:"ENABLED" envDefault:"true"`
		Key     string `env:"KEY"` // 为空时由 session secret 派生
	} `envPrefix:"CSRF_"`
	Redis struct {
		Addr             string `env:"ADDR"` // 为空时在进程内记录已注销的会话
		Password         string `env:"PASSWORD"`
		DB               int    `env:"DB" envDefault:"0"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"` // 为空时不发送通知
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	Seed struct {
		Member struct {
			Password    string `env:"PASSWORD" envDefault:"member123"`
			EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"example.com"`
		} `envPrefix:"MEMBER_"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	// .env 文件是可选的，只在本地开发时使用
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeout) * time.Second
}

func (c *Config) TransactionTimeout() time.Duration {
	return time.Duration(c.Database.TransactionTimeout) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.Expiration) * time.Second
}
