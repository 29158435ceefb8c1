package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rewards_engine/internal/repository"
	"rewards_engine/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database  repository.Config `mapstructure:"database"`
	Server    ServerConfig      `mapstructure:"server"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Payouts   PayoutsConfig     `mapstructure:"payouts"`
	Scheduler SchedulerConfig   `mapstructure:"scheduler"`
	Admin     AdminConfig       `mapstructure:"admin"`

	LogLevel string `mapstructure:"logLevel"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PayoutsConfig struct {
	DailyBudgetCents          int64  `mapstructure:"daily_budget_cents"`
	ReferralPoolTotal         int64  `mapstructure:"referral_pool_total"`
	ReferralActivationPayouts int    `mapstructure:"referral_activation_payouts"`
	MinimumPayoutCents        int64  `mapstructure:"minimum_payout_cents"`
	ActivityWindowDays        int    `mapstructure:"activity_window_days"`
	Timezone                  string `mapstructure:"timezone"`
	AllowedUsers              int    `mapstructure:"allowed_users"`
	BaseURL                   string `mapstructure:"base_url"`
}

type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	RunOnStart bool          `mapstructure:"run_on_start"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

func setDefaults(v *viper.Viper) {
	defaults := service.DefaultConfig()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "rewards")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("payouts.daily_budget_cents", defaults.DailyBudgetCents)
	v.SetDefault("payouts.referral_pool_total", defaults.ReferralPoolTotal)
	v.SetDefault("payouts.referral_activation_payouts", defaults.ReferralActivationPayouts)
	v.SetDefault("payouts.minimum_payout_cents", defaults.MinimumPayoutCents)
	v.SetDefault("payouts.activity_window_days", defaults.ActivityWindowDays)
	v.SetDefault("payouts.timezone", "UTC")
	v.SetDefault("payouts.allowed_users", defaults.AllowedUsers)
	v.SetDefault("payouts.base_url", defaults.BaseURL)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 24*time.Hour)
	v.SetDefault("scheduler.run_on_start", false)
	v.SetDefault("scheduler.lock_ttl", 30*time.Minute)

	v.SetDefault("admin.api_key", "")

	v.SetDefault("logLevel", "info")
}

// LoadConfig reads config.yaml from path (the working directory when empty),
// then applies APP_ prefixed environment overrides. A .env file is loaded
// first when present. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = configPath
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(path)
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Service converts the payouts section into service settings.
func (c *Config) Service() (service.Config, error) {
	loc, err := time.LoadLocation(c.Payouts.Timezone)
	if err != nil {
		return service.Config{}, fmt.Errorf("invalid payouts.timezone %q: %w", c.Payouts.Timezone, err)
	}

	return service.Config{
		DailyBudgetCents:          c.Payouts.DailyBudgetCents,
		ReferralPoolTotal:         c.Payouts.ReferralPoolTotal,
		ReferralActivationPayouts: c.Payouts.ReferralActivationPayouts,
		MinimumPayoutCents:        c.Payouts.MinimumPayoutCents,
		ActivityWindowDays:        c.Payouts.ActivityWindowDays,
		Location:                  loc,
		AllowedUsers:              c.Payouts.AllowedUsers,
		BaseURL:                   c.Payouts.BaseURL,
	}, nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
