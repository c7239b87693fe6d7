package config

// Config represents the modelout CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Region   string       `mapstructure:"region"`
	Endpoint string       `mapstructure:"endpoint"`
	Limits   LimitsConfig `mapstructure:"limits"`
}

// LimitsConfig holds default extraction safety limits. Sizes are humanized
// strings ("10GB") parsed at use.
type LimitsConfig struct {
	MaxFiles     int    `mapstructure:"max_files"`
	MaxTotalSize string `mapstructure:"max_total_size"`
	MaxFileSize  string `mapstructure:"max_file_size"`
}
