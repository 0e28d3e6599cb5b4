package config

// Version defines the LMIC-node formatter version.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel    int  `mapstructure:"log_level"`
		LogToSyslog bool `mapstructure:"log_to_syslog"`
	} `mapstructure:"general"`

	Codec struct {
		// Default holds the ID of the decoder used when no codec is given.
		Default string `mapstructure:"default"`

		// Plugins holds the paths of the external decoder plugins to load.
		Plugins []string `mapstructure:"plugins"`
	} `mapstructure:"codec"`

	Monitoring struct {
		Bind                string `mapstructure:"bind"`
		PrometheusEndpoint  bool   `mapstructure:"prometheus_endpoint"`
		HealthcheckEndpoint bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`
}

// C holds the global configuration.
var C Config
