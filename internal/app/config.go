package app

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config описывает настройки запуска сервиса. Значения читаются из
// файла config.yaml и переменных окружения с префиксом CHECKOUT_
// (окружение имеет приоритет).
type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`

	// Storage: "memory" либо "postgres".
	Storage     string `mapstructure:"storage"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// Redis для хранения подписей котировок; пустой адрес включает
	// in-memory хранилище.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// KafkaBrokers пуст — события остаются в outbox, worker не стартует.
	KafkaBrokers []string `mapstructure:"kafka_brokers"`

	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	OutboxBatchSize    int           `mapstructure:"outbox_batch_size"`

	Card   CardConfig   `mapstructure:"card"`
	Wallet WalletConfig `mapstructure:"wallet"`
}

// CardConfig — настройки карточного шлюза.
type CardConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SecretKey     string        `mapstructure:"secret_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// WalletConfig — настройки кошелькового шлюза.
type WalletConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	WebhookID     string        `mapstructure:"webhook_id"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	ReturnURLBase string        `mapstructure:"return_url_base"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LoadConfig читает конфигурацию из файла и окружения.
// Отсутствие файла не ошибка: значения по умолчанию рабочие.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage", "memory")
	v.SetDefault("redis_db", 0)
	v.SetDefault("outbox_poll_interval", time.Second)
	v.SetDefault("outbox_batch_size", 100)
	v.SetDefault("card.timeout", 10*time.Second)
	v.SetDefault("wallet.timeout", 10*time.Second)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
