package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable. The bot token is checked
// separately by ValidateTelegram so offline commands work without one.
func (c *Config) Validate() error {
	if err := c.validateTelegramEndpoints(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateTelegram ensures the settings required to talk to the chat platform are present.
func (c *Config) ValidateTelegram() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("telegram.bot_token is required. Set STREAMSTRIP_BOT_TOKEN or edit %s (create with 'streamstrip config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTelegramEndpoints() error {
	if strings.Count(c.Telegram.APIEndpoint, "%s") != 2 {
		return errors.New("telegram.api_endpoint must contain two %s placeholders (token, method)")
	}
	if strings.Count(c.Telegram.FileEndpoint, "%s") != 2 {
		return errors.New("telegram.file_endpoint must contain two %s placeholders (token, file path)")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"telegram.poll_timeout":              c.Telegram.PollTimeout,
		"telegram.request_timeout":           c.Telegram.RequestTimeout,
		"transform.timeout_seconds":          c.Transform.TimeoutSeconds,
		"transfer.download_timeout_seconds":  c.Transfer.DownloadTimeoutSeconds,
		"transfer.upload_timeout_seconds":    c.Transfer.UploadTimeoutSeconds,
		"transfer.progress_interval_seconds": c.Transfer.ProgressIntervalSeconds,
		"notifications.request_timeout":      c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateTransfer() error {
	if c.Transfer.FreeSpaceFactor < 0 {
		return errors.New("transfer.free_space_factor must not be negative")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.MaxConcurrentJobs <= 0 {
		return errors.New("workers.max_concurrent_jobs must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be a full http(s) URL")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
