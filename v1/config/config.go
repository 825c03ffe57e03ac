package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/std-mariadb/v1/logger"
	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
	"github.com/Aleph-Alpha/std-mariadb/v1/metrics"
	"github.com/Aleph-Alpha/std-mariadb/v1/tracer"
)

// EnvPrefix prefixes every environment override, e.g. MARIADB_LOGGER_LEVEL.
const EnvPrefix = "MARIADB"

// ErrUnknownHost is returned by Host for names that are not configured.
var ErrUnknownHost = errors.New("config: unknown mariadb host")

// Config aggregates the configuration of every component.
type Config struct {
	Logger  logger.Config    `mapstructure:"logger"`
	Metrics metrics.Config   `mapstructure:"metrics"`
	Tracer  tracer.Config    `mapstructure:"tracer"`
	Hosts   []mariadb.Config `mapstructure:"hosts"`
}

// Load reads the YAML file at path. Values from .env files are loaded into the
// environment first (the given files, or ./.env when none is given and it exists)
// and ${VAR} references in the file are expanded from the environment. Finally
// MARIADB_* variables override the scalar settings of the file:
//
//	MARIADB_LOGGER_LEVEL=debug
//	MARIADB_METRICS_ADDRESS=:9100
//
// An empty path loads defaults and environment only.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := v.ReadConfig(strings.NewReader(os.ExpandEnv(string(raw)))); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Host returns the host configuration registered under name (its Identity).
func (c *Config) Host(name string) (mariadb.Config, error) {
	for _, h := range c.Hosts {
		if h.Identity() == name {
			return h, nil
		}
	}
	return mariadb.Config{}, fmt.Errorf("%w: %s", ErrUnknownHost, name)
}

// Provide supplies the component configurations to an fx application. The first
// host becomes the mariadb.Config consumed by mariadb.FXModule.
//
//	cfg, err := config.Load("config.yaml")
//	app := fx.New(
//	    cfg.Provide(),
//	    logger.FXModule,
//	    mariadb.FXModule,
//	)
func (c *Config) Provide() fx.Option {
	opts := []fx.Option{
		fx.Supply(c.Logger, c.Metrics, c.Tracer),
	}
	if len(c.Hosts) > 0 {
		opts = append(opts, fx.Supply(c.Hosts[0]))
	}
	return fx.Options(opts...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", logger.Info)
	v.SetDefault("logger.enable_tracing", false)
	v.SetDefault("logger.service_name", "")
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("metrics.service_name", "")
	v.SetDefault("metrics.enable_default_collectors", true)
	v.SetDefault("tracer.service_name", "")
	v.SetDefault("tracer.app_env", "development")
	v.SetDefault("tracer.enable_export", false)
}

func loadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}
