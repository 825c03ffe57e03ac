// Package mariadb provides the connection pool client for MariaDB and MySQL hosts.
//
// The mariadb package keeps exactly one pool per host identity for the lifetime of
// the process. Pools are opened lazily on first use, monitored in the background,
// and swapped transparently when the host has to be reconnected. Statements use
// :name placeholders that are bound from a map of values.
//
// Core Features:
//   - Process-wide client registry keyed by host identity
//   - Lazy pool opening shared by concurrent first callers
//   - Dedicated connections with idempotent release
//   - Named parameter binding (:name) on top of go-sql-driver/mysql
//   - Transactions with automatic rollback on errors and panics
//   - Error classification (duplicate key, deadlock, lock wait timeout, ...)
//   - OpenTelemetry spans and Prometheus metrics per statement
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
//		"github.com/Aleph-Alpha/std-mariadb/v1/logger"
//	)
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	client := mariadb.Instance(mariadb.Config{
//		Name: "accounts",
//		Connection: mariadb.Connection{
//			Host:     "localhost",
//			Port:     "3306",
//			User:     "app",
//			Password: "secret",
//		},
//	}, mariadb.WithLogger(log))
//
//	rows, err := client.Query(ctx, "SELECT name FROM account.member WHERE member_uid=:uid",
//		map[string]interface{}{"uid": uid}, nil)
//
// Dedicated connections:
//
//	conn, err := client.Conn(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Release()
//
//	// Both statements run on the same session
//	_, err = conn.Exec(ctx, "SET @tag = :tag", map[string]interface{}{"tag": "import"}, )
//	rows, err := conn.Query(ctx, "SELECT @tag AS tag", nil)
//
// Transaction Example:
//
//	err = client.Transaction(ctx, func(tx *mariadb.Conn) error {
//		_, err := tx.Exec(ctx, "UPDATE bank.account SET balance=balance-:amount WHERE id=:id",
//			map[string]interface{}{"amount": amount, "id": from})
//		if err != nil {
//			return err // rolled back
//		}
//		_, err = tx.Exec(ctx, "UPDATE bank.account SET balance=balance+:amount WHERE id=:id",
//			map[string]interface{}{"amount": amount, "id": to})
//		return err
//	})
//
// Error Handling:
//
// Statements return the raw driver errors. TranslateError maps them to the
// package sentinels:
//
//	if _, err := client.Exec(ctx, insert, values, nil); err != nil {
//		if errors.Is(mariadb.TranslateError(err), mariadb.ErrDuplicateKey) {
//			// handle conflict
//		}
//	}
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		mariadb.FXModule,
//		fx.Provide(func() mariadb.Config { return loadConfig() }),
//	)
//
// Thread Safety:
//
// A *MariaDB is safe for concurrent use. A *Conn is not: statements on one
// connection run in the order they were issued.
package mariadb
