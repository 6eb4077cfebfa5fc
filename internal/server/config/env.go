package config

import (
	"os"
	"time"
)

// parseEnv overlays Config fields from environment variables. A missing or
// empty variable leaves the current value untouched, so .env files loaded
// by the entrypoint compose cleanly with defaults and flags.
func parseEnv(config *Config) {
	setString := func(target *string, name string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*target = v
		}
	}

	setString(&config.EndpointAddr, "ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.S3AccessKey, "S3_ACCESS_KEY")
	setString(&config.S3SecretKey, "S3_SECRET_KEY")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")

	if v, ok := os.LookupEnv("STORAGE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.StorageTimeout = d
		}
	}
}
