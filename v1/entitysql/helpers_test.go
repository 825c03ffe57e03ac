package entitysql

import (
	"database/sql"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
)

type testEntity struct {
	TestEntityID    string  `mariadb:"testEntityId,omitempty"`
	Data            *string `mariadb:"data"`
	CarmelCaseField *string `mariadb:"carmelCaseField"`
}

type flagEntity struct {
	Key    string `mariadb:"key,omitempty"`
	Active *bool  `mariadb:"active,bool"`
}

type keylessEntity struct {
	Name string `mariadb:"name,omitempty"`
}

type compositeEntity struct {
	TenantID string `mariadb:"tenantId,omitempty"`
	UserID   string `mariadb:"userId,omitempty"`
	Role     string `mariadb:"role,omitempty"`
}

type nullableEntity struct {
	Key   string         `mariadb:"key,omitempty"`
	Value sql.NullString `mariadb:"value"`
}

var testHost = mariadb.Config{
	Connection: mariadb.Connection{Host: "localhost", Port: "3306", User: "test"},
}

func init() {
	entity.MustRegister[testEntity](entity.Descriptor{
		Database: "test",
		Table:    "test",
		Host:     testHost,
		ID:       []string{"testEntityId"},
	})
	entity.MustRegister[flagEntity](entity.Descriptor{
		Database: "test",
		Table:    "flag",
		Host:     testHost,
		ID:       []string{"key"},
	})
	entity.MustRegister[keylessEntity](entity.Descriptor{
		Database: "test",
		Table:    "keyless",
		Host:     testHost,
	})
	entity.MustRegister[nullableEntity](entity.Descriptor{
		Database: "test",
		Table:    "nullable",
		Host:     testHost,
		ID:       []string{"key"},
	})
	entity.MustRegister[compositeEntity](entity.Descriptor{
		Database: "test",
		Table:    "membership",
		Host:     testHost,
		ID:       []string{"tenantId", "userId"},
	})
}

func ptr[T any](v T) *T {
	return &v
}
