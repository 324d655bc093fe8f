package config

const (
	defaultDataDir = "~/.local/share/solocollect"
	defaultLogDir  = "~/.local/share/solocollect/logs"

	defaultChannelHandle = "@chonjang"
	defaultChannelID     = "UCIfadKo7fcwSfgARMTz7xzA"

	defaultRequestDelaySeconds  = 1.3
	defaultTranscriptDelayMin   = 2.5
	defaultTranscriptDelayMax   = 5.0
	defaultMaxSearchResults     = 50
	defaultMaxRetries           = 3
	defaultDescriptionSeedLimit = 1200
	defaultDescriptionFullLimit = 4000

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Channel: Channel{
			Handle: defaultChannelHandle,
			ID:     defaultChannelID,
		},
		Collection: Collection{
			RequestDelaySeconds:  defaultRequestDelaySeconds,
			TranscriptDelayMin:   defaultTranscriptDelayMin,
			TranscriptDelayMax:   defaultTranscriptDelayMax,
			MaxSearchResults:     defaultMaxSearchResults,
			MaxRetries:           defaultMaxRetries,
			PreferredLanguages:   []string{"ko", "ko-KR", "en", "en-US"},
			DescriptionSeedLimit: defaultDescriptionSeedLimit,
			DescriptionFullLimit: defaultDescriptionFullLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
