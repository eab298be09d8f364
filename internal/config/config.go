package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	DatabaseURL             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	SnapshotIntervalSeconds int
	AuthSecret              string
	AccessTokenTTLMinutes   int
	OperatorEmail           string
	OperatorPassword        string
	OperatorName            string
	StaticDir               string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	snapshot, err := strconv.Atoi(getEnv("SNAPSHOT_INTERVAL_SECONDS", "30"))
	if err != nil || snapshot < 1 {
		snapshot = 30
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		AllowedOrigin:           getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 redisDB,
		SnapshotIntervalSeconds: snapshot,
		AuthSecret:              strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:   tokenTTL,
		OperatorEmail:           strings.ToLower(strings.TrimSpace(os.Getenv("OPERATOR_EMAIL"))),
		OperatorPassword:        os.Getenv("OPERATOR_PASSWORD"),
		OperatorName:            strings.TrimSpace(os.Getenv("OPERATOR_NAME")),
		StaticDir:               os.Getenv("STATIC_DIR"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
