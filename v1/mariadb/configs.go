package mariadb

import (
	"time"

	"github.com/go-sql-driver/mysql"
)

// Default pool parameters applied when the corresponding ConnectionDetails field is zero.
const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 1 * time.Minute
	DefaultAcquireTimeout  = 10 * time.Second
)

// Config defines the configuration of one MariaDB host. Every distinct host identity
// (see Identity) owns exactly one connection pool for the lifetime of the process.
type Config struct {
	// Name explicitly identifies the host. When empty the identity falls back to
	// "<host>:<user>".
	Name string `yaml:"name" mapstructure:"name"`

	Connection        Connection        `yaml:"connection" mapstructure:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connectionDetails" mapstructure:"connection_details"`
}

// Connection holds the parameters used to build the driver DSN.
type Connection struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`

	// DbName is the default schema of the connection. Entity queries always use
	// fully qualified table paths, so it may be left empty.
	DbName string `yaml:"dbName" mapstructure:"db_name"`

	// Charset defaults to utf8mb4.
	Charset string `yaml:"charset" mapstructure:"charset"`

	// ParseTime makes the driver return DATE and DATETIME columns as time.Time.
	ParseTime bool `yaml:"parseTime" mapstructure:"parse_time"`

	// Loc is the time zone used by ParseTime. Defaults to "Local".
	Loc string `yaml:"loc" mapstructure:"loc"`

	// TLS is passed through to the driver's tls parameter ("true", "skip-verify", ...).
	TLS string `yaml:"tls" mapstructure:"tls"`

	// Timeout, ReadTimeout and WriteTimeout are driver level I/O timeouts
	// expressed as Go durations ("5s").
	Timeout      string `yaml:"timeout" mapstructure:"timeout"`
	ReadTimeout  string `yaml:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"writeTimeout" mapstructure:"write_timeout"`
}

// ConnectionDetails configures the connection pool.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"maxOpenConns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" mapstructure:"conn_max_lifetime"`

	// AcquireTimeout bounds how long Conn waits for a free pooled connection.
	AcquireTimeout time.Duration `yaml:"acquireTimeout" mapstructure:"acquire_timeout"`
}

// Identity returns the key under which the host's client is registered.
func (c Config) Identity() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Connection.Host + ":" + c.Connection.User
}

func (c Config) acquireTimeout() time.Duration {
	if c.ConnectionDetails.AcquireTimeout > 0 {
		return c.ConnectionDetails.AcquireTimeout
	}
	return DefaultAcquireTimeout
}

// dsn builds the go-sql-driver DSN for the configuration.
// Format: user:password@tcp(host:port)/dbname?param=value
func (c Config) dsn() (string, error) {
	conn := c.Connection

	dc := mysql.NewConfig()
	dc.User = conn.User
	dc.Passwd = conn.Password
	dc.Net = "tcp"
	dc.Addr = conn.Host
	if conn.Port != "" {
		dc.Addr = conn.Host + ":" + conn.Port
	}
	dc.DBName = conn.DbName
	dc.ParseTime = conn.ParseTime

	charset := conn.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	dc.Params = map[string]string{"charset": charset}

	loc := conn.Loc
	if loc == "" {
		loc = "Local"
	}
	location, err := time.LoadLocation(loc)
	if err != nil {
		return "", err
	}
	dc.Loc = location

	if conn.TLS != "" {
		dc.TLSConfig = conn.TLS
	}

	for _, d := range []struct {
		value string
		dst   *time.Duration
	}{
		{conn.Timeout, &dc.Timeout},
		{conn.ReadTimeout, &dc.ReadTimeout},
		{conn.WriteTimeout, &dc.WriteTimeout},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return "", err
		}
		*d.dst = parsed
	}

	return dc.FormatDSN(), nil
}
