package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"stakeout/internal/analysis/accum"
)

// Config 描述整个服务的运行参数，来源是一份 TOML 文件。
// 所有算法阈值都走 scan 段，调参不需要改代码。
type Config struct {
	LogLevel string   `toml:"log_level"`
	Timezone string   `toml:"timezone"`
	Symbols  []string `toml:"symbols"`

	Server  Server       `toml:"server"`
	Source  Source       `toml:"source"`
	Scan    accum.Config `toml:"scan"`
	Cache   Cache        `toml:"cache"`
	Journal Journal      `toml:"journal"`
	Report  Report       `toml:"report"`
}

type Server struct {
	Addr string `toml:"addr"`
}

type Source struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	Interval       string `toml:"interval"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// HistoryDays 为回溯抓取的自然日天数，需覆盖 scan.max_history_days 个交易日。
	HistoryDays int `toml:"history_days"`
}

type Cache struct {
	Capacity int `toml:"capacity"`
}

type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Report struct {
	// SnapshotEnabled 控制 chart.png 接口是否启用无头浏览器截图。
	SnapshotEnabled bool `toml:"snapshot_enabled"`
}

// Load 读取 TOML 配置并补全默认值。path 为空时直接返回默认配置。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
	}
	return cfg.withDefaults(), nil
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.Timezone == "" {
		out.Timezone = "UTC"
	}
	if len(out.Symbols) == 0 {
		out.Symbols = []string{"BTCUSDT"}
	}
	if out.Server.Addr == "" {
		out.Server.Addr = ":8087"
	}
	if out.Source.Interval == "" {
		out.Source.Interval = "1m"
	}
	if out.Source.TimeoutSeconds <= 0 {
		out.Source.TimeoutSeconds = 15
	}
	if out.Source.HistoryDays <= 0 {
		out.Source.HistoryDays = 380
	}
	if out.Cache.Capacity <= 0 {
		out.Cache.Capacity = 200
	}
	if out.Journal.Path == "" {
		out.Journal.Path = "stakeout.db"
	}
	out.Scan = out.Scan.Normalize()
	return &out
}

// Location 解析交易日历所用的时区。
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SourceTimeout 返回行情源的 HTTP 超时。
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
