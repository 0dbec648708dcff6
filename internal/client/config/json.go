package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
	"github.com/dmitrijs2005/nutrikeeper/internal/flagx"
	"github.com/dmitrijs2005/nutrikeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// use timex.Duration so they may be written as "45s" or as nanoseconds.
// Absent fields leave the current value alone.
type JsonConfig struct {
	BaseURL             string         `json:"base_url"`
	Platform            string         `json:"platform"`
	DataDir             string         `json:"data_dir"`
	LogLevel            string         `json:"log_level"`
	MetricsAddr         string         `json:"metrics_addr"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	NetworkRetryDelay   timex.Duration `json:"network_retry_delay"`
	AnalysisTimeout     timex.Duration `json:"analysis_timeout"`
	AnalysisAttempts    int            `json:"analysis_attempts"`
	AnalysisBackoff     timex.Duration `json:"analysis_backoff"`
	QueryCacheTTL       timex.Duration `json:"query_cache_ttl"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.Platform != "" {
		cfg.Platform = platform.Platform(jc.Platform)
	}
	if jc.AnalysisAttempts != 0 {
		cfg.AnalysisAttempts = jc.AnalysisAttempts
	}

	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.NetworkRetryDelay, jc.NetworkRetryDelay)
	setDuration(&cfg.AnalysisTimeout, jc.AnalysisTimeout)
	setDuration(&cfg.AnalysisBackoff, jc.AnalysisBackoff)
	setDuration(&cfg.QueryCacheTTL, jc.QueryCacheTTL)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
