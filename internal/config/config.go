package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port            string        `mapstructure:"port"`
		Env             string        `mapstructure:"env"`
		AllowedOrigin   string        `mapstructure:"allowed_origin"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Database struct {
		DSN      string `mapstructure:"dsn"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Enabled bool     `mapstructure:"enabled"`
		Driver  string   `mapstructure:"driver"`
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Stripe struct {
		SecretKey     string `mapstructure:"secret_key"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"stripe"`
	GRPC struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"grpc"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		// OperatorEmails адреса с полным обходом проверок доступа (наследие ручного override).
		OperatorEmails []string `mapstructure:"operator_emails"`
	} `mapstructure:"auth"`
}

// Переменные окружения, без которых вебхук не обрабатывается.
const (
	EnvDatabaseDSN         = "DATABASE_DSN"
	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvAuthJWTSecret       = "AUTH_JWT_SECRET"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.allowed_origin", "*")
	v.SetDefault("app.read_timeout", 10*time.Second)
	v.SetDefault("app.write_timeout", 10*time.Second)
	v.SetDefault("app.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.driver", "kafka-go")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "subscription_events")
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("grpc.port", "9090")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.operator_emails", []string{})
}

// LoadConfig загружает конфигурацию из файла и переменных окружения.
// Файл необязателен: в serverless-окружении все приходит из env.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Чтение переменных окружения

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.App.Env == "" {
		config.App.Env = os.Getenv("APP_ENV")
	}
	return &config, nil
}

// IsProduction сообщает, запущен ли сервис в production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// MissingWebhookSecrets возвращает имена обязательных для вебхука переменных,
// которые не заданы.
func (c *Config) MissingWebhookSecrets() []string {
	var missing []string
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, EnvDatabaseDSN)
	}
	if strings.TrimSpace(c.Stripe.SecretKey) == "" {
		missing = append(missing, EnvStripeSecretKey)
	}
	if strings.TrimSpace(c.Stripe.WebhookSecret) == "" {
		missing = append(missing, EnvStripeWebhookSecret)
	}
	return missing
}

// MissingServeSecrets возвращает переменные, без которых сервер не стартует.
// Без секрета JWT любой мог бы выпустить токен суперадмина.
func (c *Config) MissingServeSecrets() []string {
	var missing []string
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, EnvDatabaseDSN)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, EnvAuthJWTSecret)
	}
	return missing
}

// IsOperatorEmail проверяет адрес по списку операторов без учета регистра.
func (c *Config) IsOperatorEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, op := range c.Auth.OperatorEmails {
		if strings.EqualFold(strings.TrimSpace(op), email) {
			return true
		}
	}
	return false
}
