package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the logger configuration.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else logs at info.
	Level string `yaml:"level" mapstructure:"level"`

	// EnableTracing adds trace_id and span_id of the active span to entries
	// written through the *WithContext methods.
	EnableTracing bool `yaml:"enableTracing" mapstructure:"enable_tracing"`

	// ServiceName is attached to every entry as the service field.
	ServiceName string `yaml:"serviceName" mapstructure:"service_name"`
}
