package tracer

// Config defines the tracer configuration.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"serviceName" mapstructure:"service_name"`

	// AppEnv is reported as the deployment environment.
	AppEnv string `yaml:"appEnv" mapstructure:"app_env"`

	// EnableExport ships spans through the OTLP HTTP exporter. The exporter reads
	// its endpoint from the standard OTEL_EXPORTER_OTLP_* environment variables.
	EnableExport bool `yaml:"enableExport" mapstructure:"enable_export"`
}
