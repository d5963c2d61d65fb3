package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"server"`
	Database struct {
		Driver   string `mapstructure:"driver"` // postgres | sqlite
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		Path     string `mapstructure:"path"` // sqlite file
	} `mapstructure:"database"`
	Auth struct {
		TelegramToken     string `mapstructure:"telegram_token"`
		JWTSecret         string `mapstructure:"jwt_secret"`
		SessionTTLHours   int    `mapstructure:"session_ttl_hours"`
		MaxAuthAgeSeconds int    `mapstructure:"max_auth_age_seconds"`
		AdminTelegramID   int64  `mapstructure:"admin_telegram_id"`
		AdminUsername     string `mapstructure:"admin_username"`
	} `mapstructure:"auth"`
	Storage struct {
		Provider     string `mapstructure:"provider"` // none | local | s3
		KeyID        string `mapstructure:"key_id"`
		AppKey       string `mapstructure:"app_key"`
		Endpoint     string `mapstructure:"endpoint"`
		Region       string `mapstructure:"region"`
		BucketCovers string `mapstructure:"bucket_covers"`
		LocalStorage string `mapstructure:"local_storage"`
		PublicURL    string `mapstructure:"public_url"`
	} `mapstructure:"storage"`
	Services struct {
		DiscogsToken          string `mapstructure:"discogs_token"`
		ContactEmail          string `mapstructure:"contact_email"`
		ResolveTimeoutSeconds int    `mapstructure:"resolve_timeout_seconds"`
	} `mapstructure:"services"`
}

// SessionTTL is how long a Telegram login stays valid after auth_date.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}

// MaxAuthAge bounds how old a Telegram auth_date may be at login.
func (c *Config) MaxAuthAge() time.Duration {
	return time.Duration(c.Auth.MaxAuthAgeSeconds) * time.Second
}

func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Services.ResolveTimeoutSeconds) * time.Second
}

// Load reads config.yaml (optional) and ALBUMS_* environment variables.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("ALBUMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register keys
	for _, key := range []string{
		"server.port",
		"server.metrics_port",
		"server.log_level",

		"database.driver",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.name",
		"database.path",

		"auth.telegram_token",
		"auth.jwt_secret",
		"auth.session_ttl_hours",
		"auth.max_auth_age_seconds",
		"auth.admin_telegram_id",
		"auth.admin_username",

		"storage.provider",
		"storage.key_id",
		"storage.app_key",
		"storage.endpoint",
		"storage.region",
		"storage.bucket_covers",
		"storage.local_storage",
		"storage.public_url",

		"services.discogs_token",
		"services.contact_email",
		"services.resolve_timeout_seconds",
	} {
		v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.metrics_port", ":9091")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "albums")
	v.SetDefault("database.path", "app.db")

	v.SetDefault("auth.session_ttl_hours", 14*24)
	v.SetDefault("auth.max_auth_age_seconds", 86400)

	v.SetDefault("storage.provider", "none")
	v.SetDefault("storage.bucket_covers", "covers")
	v.SetDefault("storage.local_storage", "./data")

	v.SetDefault("services.resolve_timeout_seconds", 15)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return &cfg
}
