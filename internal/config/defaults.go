package config

const (
	defaultBaseURL        = "https://queue.fal.run"
	defaultPollIntervalMS = 2000
	defaultDataDir        = "~/.local/share/easel"
	defaultDownloadsDir   = "~/.local/share/easel/downloads"
	defaultEndpointsDir   = "endpoints"
	defaultServerAddr     = "127.0.0.1:7860"
	defaultTheme          = "default"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			PollIntervalMS: defaultPollIntervalMS,
		},
		Paths: Paths{
			DataDir:      defaultDataDir,
			DownloadsDir: defaultDownloadsDir,
			EndpointsDir: defaultEndpointsDir,
		},
		Server: Server{
			Addr: defaultServerAddr,
		},
		UI: UI{
			Theme: defaultTheme,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
