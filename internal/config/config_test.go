package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

var envKeys = []string{
	"ADAPTIVE_CHESS_CONFIG", "STOCKFISH_PATH", "CHESS_MAX_ENGINES", "CHESS_ENGINE_THREADS",
	"CHESS_ENGINE_HASH_MB", "CHESS_ENGINE_TIMEOUT", "CHESS_DEFAULT_DEPTH", "CHESS_ANALYSIS_DEPTH",
	"CHESS_LOSS_CAP", "CHESS_SKILL_WINDOW", "CHESS_SESSION_TTL", "CHESS_EVICT_INTERVAL",
	"CHESS_COLLISION_POLICY", "CHESS_MEASUREMENT_POLICY", "HTTP_BIND", "CHESSBOT_API_URL",
	"REDIS_URL", "REDIS_CACHE_TTL", "ARCHIVE_DSN",
}

// isolate clears the environment and points XDG lookups at an empty dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultDepth != 4 || cfg.AnalysisDepth != 8 || cfg.LossCap != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.HTTPBind != ":8000" || cfg.ArchiveDSN != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Source != "" {
		t.Fatalf("no file expected, got %s", cfg.Source)
	}
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "custom.yaml"), `
engine:
  path: /opt/stockfish
  max_engines: 3
  timeout: 45s
session:
  default_depth: 2
  skill_window: 0
  ttl: "600"
  collision_policy: replace
redis:
  url: redis://localhost:6379/1
`)
	t.Setenv("CHESS_DEFAULT_DEPTH", "6")
	t.Setenv("CHESS_MAX_ENGINES", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StockfishPath != "/opt/stockfish" || cfg.MaxEngines != 3 || cfg.EngineTimeout != 45*time.Second {
		t.Fatalf("engine section: %+v", cfg)
	}
	if cfg.DefaultDepth != 6 {
		t.Fatalf("env should win over file, depth=%d", cfg.DefaultDepth)
	}
	if cfg.SessionTTL != 10*time.Minute || cfg.CollisionPolicy != "replace" {
		t.Fatalf("session section: %+v", cfg)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" || cfg.Source != path {
		t.Fatalf("redis/source: %+v", cfg)
	}
}

func TestLoadTOMLFromXDG(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, appDir, "config.toml"), `
[session]
default_depth = 3
measurement_policy = "accept_unscored"

[archive]
dsn = "sqlite::memory:"
`)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultDepth != 3 || cfg.MeasurementPolicy != "accept_unscored" || cfg.ArchiveDSN != "sqlite::memory:" {
		t.Fatalf("toml values not applied: %+v", cfg)
	}
	if filepath.Base(cfg.Source) != "config.toml" {
		t.Fatalf("source: %s", cfg.Source)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("explicit missing file must fail")
	}
	ini := writeFile(t, filepath.Join(dir, "config.ini"), "a=b")
	if _, err := Load(ini); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "session:\n  ttl: soon\n")
	if _, err := Load(bad); err == nil {
		t.Fatalf("bad duration must fail")
	}
	deep := writeFile(t, filepath.Join(dir, "deep.yaml"), "session:\n  default_depth: 12\n")
	if _, err := Load(deep); err == nil {
		t.Fatalf("depth outside [1, 8] must fail")
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"90":   90 * time.Second,
		"1m":   time.Minute,
		" 2h ": 2 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Fatalf("ParseDuration(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
