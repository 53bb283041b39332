package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	AutoMigrate           bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	MemberCacheTTLSeconds int
	AuthSecret            string
	AccessTokenTTLMinutes int
	SeedAdminPassword     string
	SeedCashierPassword   string
	KafkaBrokers          []string
	KafkaTopic            string
	OtelEndpoint          string
	ServiceName           string
	BusinessTimezone      string
	LogLevel              string
}

// Load reads configuration from the environment. Call godotenv.Load first to
// pick up a local .env file.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEMBER_CACHE_TTL_SECONDS", 300)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("KAFKA_TOPIC", "minipos.events")
	v.SetDefault("OTEL_SERVICE_NAME", "mini-pos")
	v.SetDefault("BUSINESS_TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")

	memberTTL := v.GetInt("MEMBER_CACHE_TTL_SECONDS")
	if memberTTL < 1 {
		memberTTL = 300
	}
	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}

	return Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		AutoMigrate:           v.GetBool("AUTO_MIGRATE"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		MemberCacheTTLSeconds: memberTTL,
		AuthSecret:            strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		SeedAdminPassword:     v.GetString("SEED_ADMIN_PASSWORD"),
		SeedCashierPassword:   v.GetString("SEED_CASHIER_PASSWORD"),
		KafkaBrokers:          splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:            v.GetString("KAFKA_TOPIC"),
		OtelEndpoint:          v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:           v.GetString("OTEL_SERVICE_NAME"),
		BusinessTimezone:      v.GetString("BUSINESS_TIMEZONE"),
		LogLevel:              v.GetString("LOG_LEVEL"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves BusinessTimezone; invoice dates are taken in this zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.BusinessTimezone)
}

func splitList(raw string) []string {
	out := make([]string, 0, 2)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
