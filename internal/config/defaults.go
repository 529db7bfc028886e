package config

const (
	defaultConfigPath              = "~/.config/streamstrip/config.toml"
	defaultDownloadsDir            = "~/.local/share/streamstrip/downloads"
	defaultDataDir                 = "~/.local/share/streamstrip"
	defaultLogDir                  = "~/.local/share/streamstrip/logs"
	defaultAPIEndpoint             = "https://api.telegram.org/bot%s/%s"
	defaultFileEndpoint            = "https://api.telegram.org/file/bot%s/%s"
	defaultPollTimeout             = 60
	defaultRequestTimeout          = 120
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultTransformTimeout        = 1800
	defaultMaxDiagnosticBytes      = 3500
	defaultDownloadTimeout         = 3600
	defaultUploadTimeout           = 3600
	defaultProgressIntervalSeconds = 10
	defaultFreeSpaceFactor         = 2.0
	defaultMaxConcurrentJobs       = 4
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			APIEndpoint:      defaultAPIEndpoint,
			FileEndpoint:     defaultFileEndpoint,
			RequireForwarded: true,
			PollTimeout:      defaultPollTimeout,
			RequestTimeout:   defaultRequestTimeout,
		},
		Paths: Paths{
			DownloadsDir: defaultDownloadsDir,
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
		},
		Transform: Transform{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			TimeoutSeconds:     defaultTransformTimeout,
			MaxDiagnosticBytes: defaultMaxDiagnosticBytes,
		},
		Transfer: Transfer{
			DownloadTimeoutSeconds:  defaultDownloadTimeout,
			UploadTimeoutSeconds:    defaultUploadTimeout,
			ProgressIntervalSeconds: defaultProgressIntervalSeconds,
			FreeSpaceFactor:         defaultFreeSpaceFactor,
		},
		Workers: Workers{
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
