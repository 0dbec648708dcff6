package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
	"github.com/dmitrijs2005/nutrikeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

const (
	envAPIURL       = "NUTRI_API_URL"
	envAPIURLExpo   = "EXPO_PUBLIC_API_URL"
	envPlatform     = "NUTRI_PLATFORM"
	envDataDir      = "NUTRI_DATA_DIR"
	envLogLevel     = "NUTRI_LOG_LEVEL"
	envDeviceSecret = "NUTRI_DEVICE_SECRET"
	envMetricsAddr  = "NUTRI_METRICS_ADDR"
)

// readEnv returns a lookup over the process environment backed by the
// dotenv file given with -e/-env, or ./.env when it exists. Real
// environment variables win over the file.
func readEnv(args []string, lookup func(string) (string, bool)) (func(string) (string, bool), error) {
	path := flagx.EnvFileFlags(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v
			}
		}
		return ""
	}

	if v := get(envAPIURL, envAPIURLExpo); v != "" {
		cfg.BaseURL = v
	}
	if v := get(envPlatform); v != "" {
		cfg.Platform = platform.Platform(v)
	}
	if v := get(envDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := get(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := get(envDeviceSecret); v != "" {
		cfg.DeviceSecret = v
	}
	if v := get(envMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
}
