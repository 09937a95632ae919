package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appDir = "adaptive-chess"

var ErrUnsupportedFormat = errors.New("unsupported config format")

type AppConfig struct {
	StockfishPath string
	MaxEngines    int
	EngineThreads int
	EngineHashMB  int
	EngineTimeout time.Duration

	DefaultDepth      int
	AnalysisDepth     int
	LossCap           int
	SkillWindow       int
	SessionTTL        time.Duration
	EvictInterval     time.Duration
	CollisionPolicy   string
	MeasurementPolicy string

	HTTPBind string
	APIURL   string

	RedisURL   string
	CacheTTL   time.Duration
	ArchiveDSN string

	// Source is the config file that was read, empty when none was found.
	Source string
}

// fileConfig mirrors the on-disk layout. Durations are strings such as
// "30m" or a bare number of seconds.
type fileConfig struct {
	Engine struct {
		Path       string `yaml:"path" toml:"path"`
		MaxEngines int    `yaml:"max_engines" toml:"max_engines"`
		Threads    int    `yaml:"threads" toml:"threads"`
		HashMB     int    `yaml:"hash_mb" toml:"hash_mb"`
		Timeout    string `yaml:"timeout" toml:"timeout"`
	} `yaml:"engine" toml:"engine"`
	Session struct {
		DefaultDepth  int    `yaml:"default_depth" toml:"default_depth"`
		AnalysisDepth int    `yaml:"analysis_depth" toml:"analysis_depth"`
		LossCap       int    `yaml:"loss_cap" toml:"loss_cap"`
		SkillWindow   *int   `yaml:"skill_window" toml:"skill_window"`
		TTL           string `yaml:"ttl" toml:"ttl"`
		EvictInterval string `yaml:"evict_interval" toml:"evict_interval"`
		Collision     string `yaml:"collision_policy" toml:"collision_policy"`
		Measurement   string `yaml:"measurement_policy" toml:"measurement_policy"`
	} `yaml:"session" toml:"session"`
	HTTP struct {
		Bind   string `yaml:"bind" toml:"bind"`
		APIURL string `yaml:"api_url" toml:"api_url"`
	} `yaml:"http" toml:"http"`
	Redis struct {
		URL      string `yaml:"url" toml:"url"`
		CacheTTL string `yaml:"cache_ttl" toml:"cache_ttl"`
	} `yaml:"redis" toml:"redis"`
	Archive struct {
		DSN string `yaml:"dsn" toml:"dsn"`
	} `yaml:"archive" toml:"archive"`
}

func Default() *AppConfig {
	return &AppConfig{
		StockfishPath:     "stockfish",
		EngineTimeout:     30 * time.Second,
		DefaultDepth:      4,
		AnalysisDepth:     8,
		LossCap:           1000,
		SessionTTL:        30 * time.Minute,
		EvictInterval:     time.Minute,
		CollisionPolicy:   "reject",
		MeasurementPolicy: "reject",
		HTTPBind:          ":8000",
		APIURL:            "http://127.0.0.1:8000",
		CacheTTL:          24 * time.Hour,
		ArchiveDSN:        "memory",
	}
}

// Load builds the configuration from defaults, then the config file, then the
// environment. An explicit path must exist; otherwise the XDG config
// directories are searched for adaptive-chess/config.yaml or config.toml.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("ADAPTIVE_CHESS_CONFIG"))
	}
	if path == "" {
		path = searchConfigFile()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		cfg.Source = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchConfigFile() string {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		if p, err := xdg.SearchConfigFile(filepath.Join(appDir, name)); err == nil {
			return p
		}
	}
	return ""
}

func (c *AppConfig) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return c.merge(&fc)
}

func (c *AppConfig) merge(fc *fileConfig) error {
	setString(&c.StockfishPath, fc.Engine.Path)
	setPositive(&c.MaxEngines, fc.Engine.MaxEngines)
	setPositive(&c.EngineThreads, fc.Engine.Threads)
	setPositive(&c.EngineHashMB, fc.Engine.HashMB)

	setPositive(&c.DefaultDepth, fc.Session.DefaultDepth)
	setPositive(&c.AnalysisDepth, fc.Session.AnalysisDepth)
	setPositive(&c.LossCap, fc.Session.LossCap)
	if fc.Session.SkillWindow != nil {
		c.SkillWindow = *fc.Session.SkillWindow
	}
	setString(&c.CollisionPolicy, fc.Session.Collision)
	setString(&c.MeasurementPolicy, fc.Session.Measurement)

	setString(&c.HTTPBind, fc.HTTP.Bind)
	setString(&c.APIURL, fc.HTTP.APIURL)
	setString(&c.RedisURL, fc.Redis.URL)
	setString(&c.ArchiveDSN, fc.Archive.DSN)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"engine.timeout", fc.Engine.Timeout, &c.EngineTimeout},
		{"session.ttl", fc.Session.TTL, &c.SessionTTL},
		{"session.evict_interval", fc.Session.EvictInterval, &c.EvictInterval},
		{"redis.cache_ttl", fc.Redis.CacheTTL, &c.CacheTTL},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	envString("STOCKFISH_PATH", &c.StockfishPath)
	envInt("CHESS_MAX_ENGINES", &c.MaxEngines, 1)
	envInt("CHESS_ENGINE_THREADS", &c.EngineThreads, 1)
	envInt("CHESS_ENGINE_HASH_MB", &c.EngineHashMB, 1)
	envDuration("CHESS_ENGINE_TIMEOUT", &c.EngineTimeout)

	envInt("CHESS_DEFAULT_DEPTH", &c.DefaultDepth, 1)
	envInt("CHESS_ANALYSIS_DEPTH", &c.AnalysisDepth, 1)
	envInt("CHESS_LOSS_CAP", &c.LossCap, 1)
	envInt("CHESS_SKILL_WINDOW", &c.SkillWindow, 0)
	envDuration("CHESS_SESSION_TTL", &c.SessionTTL)
	envDuration("CHESS_EVICT_INTERVAL", &c.EvictInterval)
	envString("CHESS_COLLISION_POLICY", &c.CollisionPolicy)
	envString("CHESS_MEASUREMENT_POLICY", &c.MeasurementPolicy)

	envString("HTTP_BIND", &c.HTTPBind)
	envString("CHESSBOT_API_URL", &c.APIURL)
	envString("REDIS_URL", &c.RedisURL)
	envDuration("REDIS_CACHE_TTL", &c.CacheTTL)
	envString("ARCHIVE_DSN", &c.ArchiveDSN)
}

func (c *AppConfig) Validate() error {
	if c.StockfishPath == "" {
		return errors.New("STOCKFISH_PATH is required")
	}
	if c.DefaultDepth < 1 || c.DefaultDepth > 8 {
		return fmt.Errorf("default depth %d not in [1, 8]", c.DefaultDepth)
	}
	if c.SkillWindow < 0 {
		return fmt.Errorf("skill window must be >= 0: %d", c.SkillWindow)
	}
	if c.HTTPBind == "" {
		return errors.New("HTTP_BIND is required")
	}
	return nil
}

// ParseDuration accepts Go duration syntax or a bare number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func envString(key string, dst *string) {
	setString(dst, os.Getenv(key))
}

func envInt(key string, dst *int, min int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
