package repository

import (
	"github.com/Aleph-Alpha/std-mariadb/v1/entitysql"
	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
)

// ReadOptions apply to the read operations.
type ReadOptions struct {
	// Conn runs the statement on a caller owned connection (or transaction).
	// When nil a pooled connection is used and released afterwards.
	Conn *mariadb.Conn

	// Lock appends a row level lock. Locks only last as long as the surrounding
	// transaction, so they are meant to be used with a transactional Conn.
	Lock entitysql.LockMode
}

// WriteOptions apply to the write operations.
type WriteOptions struct {
	Conn *mariadb.Conn
}

// ListQuery describes a FindAll call.
type ListQuery struct {
	// Where filters the rows; nil selects every row.
	Where entitysql.Expr

	// Props limits the selected properties; nil selects all of them.
	Props []string

	Order OrderBy
	Page  entitysql.Page

	ReadOptions
}

// OrderBy is re-exported for convenience.
type OrderBy = entitysql.OrderBy

// Option configures a Repository.
type Option func(*options)

type options struct {
	client *mariadb.MariaDB
}

// WithClient makes the repository use client instead of the process-wide client
// registered for the entity's host.
func WithClient(client *mariadb.MariaDB) Option {
	return func(o *options) {
		o.client = client
	}
}
