package mariadb

import (
	"context"
)

// Transaction executes fn within a database transaction on a freshly acquired
// connection. If fn returns an error the transaction is rolled back; otherwise
// it is committed. The connection is released afterwards in either case.
//
// This method provides a clean way to execute multiple statements as a single
// atomic unit, for example to read a row with a row-level lock and update it.
//
// Example usage:
//
//	err := client.Transaction(ctx, func(tx *mariadb.Conn) error {
//		rows, err := tx.Query(ctx, "SELECT balance FROM bank.account WHERE id=:id FOR UPDATE", map[string]interface{}{"id": id})
//		if err != nil {
//			return err
//		}
//		_, err = tx.Exec(ctx, "UPDATE bank.account SET balance=:balance WHERE id=:id", values)
//		return err
//	})
func (m *MariaDB) Transaction(ctx context.Context, fn func(tx *Conn) error) error {
	conn, err := m.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return conn.Transaction(ctx, fn)
}
