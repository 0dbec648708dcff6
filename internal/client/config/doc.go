// Package config loads runtime configuration for the NutriKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file: -e/-env, or ./.env when present.
//  3. Environment variables, which win over the dotenv file.
//  4. Optional JSON file selected via -c or -config.
//  5. Command-line flags, which override everything else.
//
// Environment
//
//	NUTRI_API_URL         API base URL (EXPO_PUBLIC_API_URL is accepted too)
//	NUTRI_PLATFORM        web, ios or android
//	NUTRI_DATA_DIR        where the local database lives
//	NUTRI_LOG_LEVEL       debug, info, warn or error
//	NUTRI_DEVICE_SECRET   overrides the generated secure-store secret
//	NUTRI_METRICS_ADDR    serve Prometheus metrics on host:port
//
// Supported flags
//
//	-a string   API base URL
//	-p string   platform
//	-d string   data directory
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations are timex.Duration, so "45s" and integer nanoseconds both work:
//
//	{
//	  "base_url": "https://api.example.com/api",
//	  "platform": "android",
//	  "analysis_timeout": "45s",
//	  "analysis_attempts": 3,
//	  "online_check_interval": "3s"
//	}
//
// A missing or relative base URL fails with ErrMissingBaseURL.
package config
