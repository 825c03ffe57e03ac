// Package repository provides typed CRUD access to registered entities.
//
// A Repository[T] combines the SQL builders of the entitysql package with the
// mariadb client: it renders the statement, binds the placed values, runs it on a
// pooled or caller supplied connection and maps the rows back onto T.
//
// Basic usage:
//
//	type Member struct {
//		MemberUID uuid.UUID `mariadb:"memberUid"`
//		Grade     string    `mariadb:"grade,omitempty"`
//		Points    *int      `mariadb:"points"`
//	}
//
//	entity.MustRegister[Member](entity.Descriptor{
//		Database: "accounts",
//		Table:    "member",
//		Host:     accountsHost, // mariadb.Config, see config.Config.Host
//		ID:       []string{"memberUid"},
//	})
//
//	members, err := repository.New[Member]()
//	if err != nil {
//		return err
//	}
//
//	m, err := members.Find(ctx, entitysql.Eq("memberUid", uid), nil, repository.ReadOptions{})
//	if err != nil {
//		return err
//	}
//	if m == nil {
//		// not found
//	}
//
// Transactions:
//
//	err := members.Transaction(ctx, func(tx *mariadb.Conn) error {
//		m, err := members.Find(ctx, entitysql.Eq("memberUid", uid), nil, repository.ReadOptions{
//			Conn: tx,
//			Lock: entitysql.LockExclusive,
//		})
//		if err != nil || m == nil {
//			return err
//		}
//		m.Grade = "gold"
//		_, err = members.Update(ctx, m, repository.WriteOptions{Conn: tx})
//		return err
//	})
//
// Statements run without a Conn acquire a pooled connection and release it when
// they return, on success and on error alike. A supplied Conn is left open.
package repository
