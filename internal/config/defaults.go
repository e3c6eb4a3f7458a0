package config

// Storage backends.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
)

// History backends.
const (
	HistoryJSON   = "json"
	HistorySQLite = "sqlite"
	HistoryPebble = "pebble"
)

const (
	defaultConfigPath             = "~/.config/slidereel/config.toml"
	defaultWorkDir                = "~/.local/share/slidereel/work"
	defaultOutputDir              = "~/.local/share/slidereel/output"
	defaultLogDir                 = "~/.local/share/slidereel/logs"
	defaultIntro1080              = "~/.local/share/slidereel/assets/intro.mp4"
	defaultIntro720               = "~/.local/share/slidereel/assets/intro720.mp4"
	defaultHistoryPath            = "~/.local/share/slidereel/history.json"
	defaultAPIBind                = "127.0.0.1:7610"
	defaultSlidePauseSeconds      = 2.0
	defaultCrossfadeSeconds       = 1.0
	defaultIntroTailSeconds       = 1.0
	defaultShortSlideCount        = 1
	defaultPreset                 = "fast"
	defaultVideoBitrate           = "15705k"
	defaultAudioBitrate           = "317k"
	defaultFrameRate              = "23.98"
	defaultAudioGain              = "2.4"
	defaultStoragePrefix          = "videos"
	defaultStorageACL             = "public-read"
	defaultS3PublicURLTemplate    = "https://{bucket}.s3.{region}.amazonaws.com/{key}"
	defaultGCSPublicURLTemplate   = "https://storage.googleapis.com/{bucket}/{key}"
	defaultPostmarkAPIURL         = "https://api.postmarkapp.com/email"
	defaultNotifyRequestTimeout   = 10
	defaultNotifyRetries          = 1
	defaultHistoryRetentionHours  = 72
	defaultMaxUploadMB            = 512
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 60
	pebbleHistoryDirectorySuffix  = ".pebble"
	sqliteHistoryDatabaseFileName = "history.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Assets: Assets{
			Intro1080: defaultIntro1080,
			Intro720:  defaultIntro720,
		},
		Render: Render{
			FFmpegBinary:      "ffmpeg",
			FFprobeBinary:     "ffprobe",
			SlidePauseSeconds: defaultSlidePauseSeconds,
			CrossfadeSeconds:  defaultCrossfadeSeconds,
			IntroTailSeconds:  defaultIntroTailSeconds,
			ShortSlideCount:   defaultShortSlideCount,
			Preset:            defaultPreset,
			VideoBitrate:      defaultVideoBitrate,
			AudioBitrate:      defaultAudioBitrate,
			FrameRate:         defaultFrameRate,
			AudioGain:         defaultAudioGain,
		},
		Storage: Storage{
			Prefix: defaultStoragePrefix,
			ACL:    defaultStorageACL,
		},
		Notifications: Notifications{
			APIURL:         defaultPostmarkAPIURL,
			RequestTimeout: defaultNotifyRequestTimeout,
			Retries:        defaultNotifyRetries,
		},
		History: History{
			Backend:        HistoryJSON,
			Path:           defaultHistoryPath,
			RetentionHours: defaultHistoryRetentionHours,
		},
		API: API{
			MaxUploadMB: defaultMaxUploadMB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
