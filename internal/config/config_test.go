package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"streamstrip/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STREAMSTRIP_BOT_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("STREAMSTRIP_NTFY_TOPIC", "")
	os.Unsetenv("STREAMSTRIP_BOT_TOKEN")
	os.Unsetenv("BOT_TOKEN")
	os.Unsetenv("STREAMSTRIP_NTFY_TOPIC")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDownloads := filepath.Join(home, ".local", "share", "streamstrip", "downloads")
	if cfg.Paths.DownloadsDir != wantDownloads {
		t.Fatalf("unexpected downloads dir: got %q want %q", cfg.Paths.DownloadsDir, wantDownloads)
	}
	if cfg.DatabasePath() != filepath.Join(home, ".local", "share", "streamstrip", "streamstrip.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.ProgressInterval() != 10*time.Second {
		t.Fatalf("unexpected progress interval: %s", cfg.ProgressInterval())
	}
	if !cfg.Telegram.RequireForwarded {
		t.Fatal("expected forwarded videos to be required by default")
	}
	if err := cfg.ValidateTelegram(); err == nil {
		t.Fatal("expected missing bot token to fail telegram validation")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadUsesEnvBotToken(t *testing.T) {
	isolateEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.BotToken)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		t.Fatalf("ValidateTelegram returned error: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamstrip.toml")

	type payload struct {
		Telegram struct {
			BotToken string `toml:"bot_token"`
			OwnerURL string `toml:"owner_url"`
		} `toml:"telegram"`
		Paths struct {
			DownloadsDir string `toml:"downloads_dir"`
		} `toml:"paths"`
		Transform struct {
			TimeoutSeconds int `toml:"timeout_seconds"`
		} `toml:"transform"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Telegram.BotToken = " 42:token "
	custom.Telegram.OwnerURL = "https://t.me/example"
	custom.Paths.DownloadsDir = filepath.Join(tempDir, "dl")
	custom.Transform.TimeoutSeconds = 90
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Telegram.BotToken != "42:token" {
		t.Fatalf("expected trimmed token, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Paths.DownloadsDir != filepath.Join(tempDir, "dl") {
		t.Fatalf("unexpected downloads dir: %q", cfg.Paths.DownloadsDir)
	}
	if cfg.TransformTimeout() != 90*time.Second {
		t.Fatalf("unexpected transform timeout: %s", cfg.TransformTimeout())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
	if cfg.Transform.FFmpegBinary != "ffmpeg" {
		t.Fatalf("expected default ffmpeg binary, got %q", cfg.Transform.FFmpegBinary)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero workers", func(c *config.Config) { c.Workers.MaxConcurrentJobs = 0 }, "workers.max_concurrent_jobs"},
		{"zero interval", func(c *config.Config) { c.Transfer.ProgressIntervalSeconds = 0 }, "transfer.progress_interval_seconds"},
		{"negative timeout", func(c *config.Config) { c.Transform.TimeoutSeconds = -1 }, "transform.timeout_seconds"},
		{"bad endpoint", func(c *config.Config) { c.Telegram.APIEndpoint = "https://example.com" }, "telegram.api_endpoint"},
		{"topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative free space", func(c *config.Config) { c.Transfer.FreeSpaceFactor = -1 }, "transfer.free_space_factor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Workers.MaxConcurrentJobs != config.Default().Workers.MaxConcurrentJobs {
		t.Fatalf("unexpected workers value: %d", cfg.Workers.MaxConcurrentJobs)
	}
}
