package config

const (
	defaultConfigPath     = "~/.config/switchlib/config.toml"
	defaultOutputDir      = "~/switch"
	defaultStagingDir     = "~/.local/share/switchlib/staging"
	defaultDataDir        = "~/.local/share/switchlib"
	defaultLogDir         = "~/.local/share/switchlib/logs"
	defaultToolPath       = "7z"
	defaultListTimeout    = 15
	defaultRequestTimeout = 120
	defaultMountRoot      = "/run/user/1000/gvfs"
	defaultSettleInterval = 2
	defaultSettleTimeout  = 7200
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLanguage       = "en"

	// DeviceScheme prefixes output directories that live on a device.
	DeviceScheme = "mtp://"
)

// Built-in passwords appended after the user's list.
var defaultPasswords = []string{"gkinto.com", "gamekegs.com"}

func defaultTitleDBSources() []TitleDBSource {
	return []TitleDBSource{
		{Key: "US.en", URL: "https://raw.githubusercontent.com/blawar/titledb/master/US.en.json"},
		{Key: "CN.zh", URL: "https://raw.githubusercontent.com/blawar/titledb/master/CN.zh.json", Overlay: true},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Extraction: Extraction{
			ToolPath:         defaultToolPath,
			Passwords:        "gkinto.com,gamekegs.com",
			DefaultPasswords: append([]string(nil), defaultPasswords...),
			ListTimeout:      defaultListTimeout,
		},
		// Sources stay empty so array tables in a file replace them
		// wholesale; normalize fills the defaults.
		TitleDB: TitleDB{
			RequestTimeout: defaultRequestTimeout,
		},
		Device: Device{
			MountRoot:      defaultMountRoot,
			SettleInterval: defaultSettleInterval,
			SettleTimeout:  defaultSettleTimeout,
		},
		Logging: Logging{
			Format:   defaultLogFormat,
			Level:    defaultLogLevel,
			Language: defaultLanguage,
		},
	}
}
