package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config конфигурация приложения
type Config struct {
	ServerPort     string        `mapstructure:"port"`
	LogPath        string        `mapstructure:"log_path"`
	HistorySize    int           `mapstructure:"history_size"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	MirrorTTLHours int           `mapstructure:"mirror_ttl_hours"`
	MirrorTTL      time.Duration `mapstructure:"-"`
}

// RedisEnabled включено ли зеркалирование в Redis
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("log_path", "sensor_data.csv")
	v.SetDefault("history_size", 500)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("mirror_ttl_hours", 24)
}

// Load читает config.yaml из каталогов paths (если файл есть) и переменные
// окружения. Переменные окружения имеют приоритет над файлом.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// PORT, LOG_PATH, HISTORY_SIZE, REDIS_ADDR ...
	v.AutomaticEnv()
	// FLASK_PORT оставлен для совместимости со старым мостом
	if err := v.BindEnv("port", "PORT", "FLASK_PORT"); err != nil {
		return Config{}, err
	}

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
			log.Printf("No config file found, using defaults and environment")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "5000"
	}
	if cfg.HistorySize <= 0 {
		log.Printf("Invalid history_size %d, using 500", cfg.HistorySize)
		cfg.HistorySize = 500
	}
	if cfg.MirrorTTLHours <= 0 {
		cfg.MirrorTTLHours = 24
	}
	cfg.MirrorTTL = time.Duration(cfg.MirrorTTLHours) * time.Hour

	return cfg, nil
}
