package config

// TelemetryConfig configures OTLP trace export. An empty Endpoint
// disables export entirely.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"` // OTLP HTTP endpoint, e.g. "localhost:4318"
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Enabled reports whether trace export is configured.
func (t TelemetryConfig) Enabled() bool {
	return t.Endpoint != ""
}
