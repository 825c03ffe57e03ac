// Package entity maps Go structs to MariaDB rows.
//
// An entity is a struct registered with a Descriptor naming its database, table,
// host and identity properties. The registry is process-wide and populated at
// startup; the SQL builders and the repository look descriptors up by type.
//
// Properties are declared with the mariadb struct tag:
//
//	type Member struct {
//		MemberUID string          `mariadb:"memberUid"`
//		Nickname  *string         `mariadb:"nickname"`
//		Active    bool            `mariadb:"active,bool"`
//		Profile   Profile         `mariadb:"profile,json"`
//		Balance   decimal.Decimal `mariadb:"balance"`
//		Internal  string          `mariadb:"-"`
//	}
//
// The first tag element is the property name; the column name is derived from it
// by the entitysql package (memberUid becomes member_uid). Untagged exported fields
// use the field name with its first letter lower-cased.
//
// Absent vs NULL:
//
// Serialize leaves out absent properties (nil pointers, nil interfaces and zero
// values tagged omitempty), so they never show up in column lists. A value that
// serializes to nil, such as an invalid sql.NullString, is an explicit NULL and
// is written.
//
// Transformers:
//
// A transformer named in the tag converts the value in both directions:
// bool (true/false as 1/0), json (JSON text), binary (binary column read as a
// string), binary-twoway (also writes strings as bytes) and msgpack. Custom
// transformers can be added with RegisterTransformer before the first use of a
// type that refers to them.
package entity
