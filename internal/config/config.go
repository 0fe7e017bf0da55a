package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Environment   string `mapstructure:"ENV"`

	// TimeZone часовой пояс студии, в нём считаются дни календаря
	TimeZone      string        `mapstructure:"TZ_NAME"`
	SignupCutoff  time.Duration `mapstructure:"SIGNUP_CUTOFF"`
	MaxWeeks      int           `mapstructure:"MAX_WEEKS"`
	TxMaxRetries  uint64        `mapstructure:"TX_MAX_RETRIES"`
	SweepSchedule string        `mapstructure:"SWEEP_SCHEDULE"`

	// RedisAddr пустой, если фоновые задачи запускает единственный экземпляр
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
}

var keys = []string{
	"TELEGRAM_TOKEN",
	"DB_DSN",
	"ENV",
	"TZ_NAME",
	"SIGNUP_CUTOFF",
	"MAX_WEEKS",
	"TX_MAX_RETRIES",
	"SWEEP_SCHEDULE",
	"REDIS_ADDR",
	"MIGRATIONS_DIR",
}

// Load читает конфигурацию из .env файла и переменных окружения
func Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load(".env")

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("ENV", "development")
	v.SetDefault("TZ_NAME", "Europe/Moscow")
	v.SetDefault("SIGNUP_CUTOFF", "3h")
	v.SetDefault("MAX_WEEKS", 4)
	v.SetDefault("TX_MAX_RETRIES", 5)
	v.SetDefault("SWEEP_SCHEDULE", "@every 1h")

	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.SignupCutoff < 0 {
		return fmt.Errorf("SIGNUP_CUTOFF must not be negative")
	}
	if c.MaxWeeks <= 0 {
		return fmt.Errorf("MAX_WEEKS must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TZ_NAME %q: %w", c.TimeZone, err)
	}
	return nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// Location возвращает часовой пояс студии
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
