package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Telegram contains chat platform credentials and polling behaviour.
type Telegram struct {
	BotToken         string `toml:"bot_token"`
	APIEndpoint      string `toml:"api_endpoint"`
	FileEndpoint     string `toml:"file_endpoint"`
	OwnerURL         string `toml:"owner_url"`
	RequireForwarded bool   `toml:"require_forwarded"`
	PollTimeout      int    `toml:"poll_timeout"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Paths contains working directory configuration.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
}

// Transform contains settings for the external transcoder invocation.
type Transform struct {
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	FFprobeBinary      string `toml:"ffprobe_binary"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	ProbeOutput        bool   `toml:"probe_output"`
	MaxDiagnosticBytes int    `toml:"max_diagnostic_bytes"`
}

// Transfer contains download/upload timeouts and progress reporting cadence.
type Transfer struct {
	DownloadTimeoutSeconds  int     `toml:"download_timeout_seconds"`
	UploadTimeoutSeconds    int     `toml:"upload_timeout_seconds"`
	ProgressIntervalSeconds int     `toml:"progress_interval_seconds"`
	FreeSpaceFactor         float64 `toml:"free_space_factor"`
}

// Workers bounds concurrent pipeline jobs.
type Workers struct {
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`
}

// Notifications contains configuration for ntfy operator notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completions    bool   `toml:"completions"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for streamstrip.
//
// Configuration sections by subsystem:
//   - Telegram: bot token, API endpoints, polling
//   - Paths: downloads, data (record database), and log directories
//   - Transform: ffmpeg/ffprobe binaries and transform timeout
//   - Transfer: download/upload timeouts, progress edit interval
//   - Workers: concurrent job limit
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Telegram      Telegram      `toml:"telegram"`
	Paths         Paths         `toml:"paths"`
	Transform     Transform     `toml:"transform"`
	Transfer      Transfer      `toml:"transfer"`
	Workers       Workers       `toml:"workers"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamstrip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the bot writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadsDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding completion records and links.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "streamstrip.db")
}

// LockPath returns the lock file guarding the downloads directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DownloadsDir, ".streamstrip.lock")
}

// DownloadTimeout returns the per-job download deadline.
func (c *Config) DownloadTimeout() time.Duration {
	return seconds(c.Transfer.DownloadTimeoutSeconds)
}

// UploadTimeout returns the per-job upload deadline.
func (c *Config) UploadTimeout() time.Duration {
	return seconds(c.Transfer.UploadTimeoutSeconds)
}

// TransformTimeout returns the deadline applied to the transcoder process.
func (c *Config) TransformTimeout() time.Duration {
	return seconds(c.Transform.TimeoutSeconds)
}

// ProgressInterval returns the minimum spacing between status edits per message.
func (c *Config) ProgressInterval() time.Duration {
	return seconds(c.Transfer.ProgressIntervalSeconds)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
