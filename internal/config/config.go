package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type AppInfo struct {
	Name        string
	Version     string
	Environment string
}

type StorageConfig struct {
	Path                 string
	QuotaBytes           int
	CompressionEnabled   bool
	CompressionThreshold int
	EncryptionSecret     string
	WatchInterval        time.Duration
}

type SecurityConfig struct {
	JWTSecret   string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RefreshLead time.Duration // refresh this long before access expiry
	RefreshSoon time.Duration // ShouldRefresh window on foreground return
}

type CacheConfig struct {
	TTL time.Duration
}

type AppConfig struct {
	App      AppInfo
	Storage  StorageConfig
	Security SecurityConfig
	Cache    CacheConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("JOURNIFY")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "journify")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("storage.path", "data/journify.json")
	v.SetDefault("storage.quotabytes", 10*1024*1024)
	v.SetDefault("storage.compressionenabled", true)
	v.SetDefault("storage.compressionthreshold", 1000)
	v.SetDefault("storage.encryptionsecret", "journify-dev-at-rest-secret")
	v.SetDefault("storage.watchinterval", "2s")

	v.SetDefault("security.jwtsecret", "journify-dev-signing-secret-32ch")
	v.SetDefault("security.accessttl", "1h")
	v.SetDefault("security.refreshttl", "168h") // 7 days
	v.SetDefault("security.refreshlead", "5m")
	v.SetDefault("security.refreshsoon", "10m")

	v.SetDefault("cache.ttl", "5m")
}
