package metrics

// Config defines the metrics server configuration.
type Config struct {
	// Address is the listen address of the /metrics endpoint, for example ":9090".
	Address string `yaml:"address" mapstructure:"address"`

	// ServiceName is attached to every metric as the service label.
	ServiceName string `yaml:"serviceName" mapstructure:"service_name"`

	// EnableDefaultCollectors registers the Go, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enableDefaultCollectors" mapstructure:"enable_default_collectors"`
}
