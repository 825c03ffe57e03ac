package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/std-mariadb/v1/config"
	"github.com/Aleph-Alpha/std-mariadb/v1/logger"
	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
)

type globalFlags struct {
	configPath string
	envFiles   []string
	host       string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "mariadb-query",
		Short:         "Run statements against a configured MariaDB host",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "mariadb.yaml", "Path to the YAML config file")
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "Additional .env files to load")
	cmd.PersistentFlags().StringVar(&flags.host, "host", "", "Host identity to connect to (default: first configured host)")

	cmd.AddCommand(newQueryCommand(flags))
	cmd.AddCommand(newExecCommand(flags))
	cmd.AddCommand(newPingCommand(flags))
	cmd.AddCommand(newHostsCommand(flags))
	return cmd
}

func newQueryCommand(flags *globalFlags) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SELECT and print the rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), flags, func(ctx context.Context, client *mariadb.MariaDB) error {
				rows, err := client.Query(ctx, args[0], values, nil)
				if err != nil {
					return err
				}
				return writeRows(cmd.OutOrStdout(), rows)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Named parameter as key=value, repeatable")
	return cmd
}

func newExecCommand(flags *globalFlags) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a write statement and print the affected rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), flags, func(ctx context.Context, client *mariadb.MariaDB) error {
				res, err := client.Exec(ctx, args[0], values, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s rows affected, last insert id %d\n",
					color.GreenString("%d", res.RowsAffected), res.LastInsertID)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Named parameter as key=value, repeatable")
	return cmd
}

func newPingCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the host accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), flags, func(ctx context.Context, client *mariadb.MariaDB) error {
				if _, err := client.Query(ctx, "SELECT 1 AS ok", nil, nil); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("ok"), client.Config().Identity())
				return nil
			})
		},
	}
}

func newHostsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List the configured hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath, flags.envFiles...)
			if err != nil {
				return err
			}
			for _, h := range cfg.Hosts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s:%s\n", h.Identity(), h.Connection.Host, h.Connection.Port)
			}
			return nil
		},
	}
}

// withClient loads the configuration, opens the selected host and shuts it down
// after fn returns. SIGINT and SIGTERM cancel ctx.
func withClient(ctx context.Context, flags *globalFlags, fn func(context.Context, *mariadb.MariaDB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(flags.configPath, flags.envFiles...)
	if err != nil {
		return err
	}
	host, err := selectHost(cfg, flags.host)
	if err != nil {
		return err
	}

	log := logger.NewLoggerClient(cfg.Logger)
	defer func() { _ = log.Zap.Sync() }()

	client := mariadb.Instance(host, mariadb.WithLogger(log))
	defer func() {
		if err := client.GracefulShutdown(); err != nil {
			log.Warn("Error closing MariaDB pool", err)
		}
	}()

	return fn(ctx, client)
}

func selectHost(cfg *config.Config, name string) (mariadb.Config, error) {
	if name != "" {
		return cfg.Host(name)
	}
	if len(cfg.Hosts) == 0 {
		return mariadb.Config{}, fmt.Errorf("no hosts configured")
	}
	return cfg.Hosts[0], nil
}

// parseParams turns key=value pairs into named statement values. Values are bound
// as strings and converted by the server.
func parseParams(params []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(params))
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", p)
		}
		values[key] = value
	}
	return values, nil
}

// writeRows prints rows as a JSON array. Text columns arrive as []byte and are
// printed as strings.
func writeRows(w io.Writer, rows []mariadb.Row) error {
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		m := make(map[string]interface{}, len(row))
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			m[k] = v
		}
		out[i] = m
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
