package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Prefix          string
	Addr            string
	StoreDriver     string
	DataFile        string
	DatabaseURL     string
	Locale          string
	KeyBytes        int
	ShutdownTimeout time.Duration
}

var AppConfig *Config

func LoadConfig() {
	_ = godotenv.Load() // Load from .env if it exists, ignore error if not

	AppConfig = &Config{
		Prefix:          getEnv("KEYSTORE_PREFIX", "/api"),
		Addr:            getEnv("KEYSTORE_ADDR", ":8080"),
		StoreDriver:     getEnv("KEYSTORE_DRIVER", "file"),
		DataFile:        getEnv("KEYSTORE_DATA_FILE", "/tmp/keys.json"),
		DatabaseURL:     getEnv("KEYSTORE_DATABASE_URL", "file:keys.db?cache=shared&mode=rwc"),
		Locale:          getEnv("KEYSTORE_LOCALE", "vi"),
		KeyBytes:        getEnvInt("KEYSTORE_KEY_BYTES", 16),
		ShutdownTimeout: getEnvDuration("KEYSTORE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if AppConfig.KeyBytes <= 0 {
		log.Printf("Warning: KEYSTORE_KEY_BYTES=%d is not positive, using 16.", AppConfig.KeyBytes)
		AppConfig.KeyBytes = 16
	}
	if AppConfig.StoreDriver == "memory" {
		log.Println("Warning: KEYSTORE_DRIVER=memory, keys will not survive a restart.")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
