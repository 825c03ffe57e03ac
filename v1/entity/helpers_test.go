package entity

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Audit struct {
	UpdatedBy string `mariadb:"updatedBy,omitempty"`
}

type profile struct {
	Theme string   `json:"theme" msgpack:"theme"`
	Tags  []string `json:"tags" msgpack:"tags"`
}

type member struct {
	MemberUID uuid.UUID         `mariadb:"memberUid"`
	Nickname  string            `mariadb:"nickname,omitempty"`
	Balance   decimal.Decimal   `mariadb:"balance"`
	Points    *int              `mariadb:"points"`
	Active    bool              `mariadb:"active,bool"`
	Profile   profile           `mariadb:"profile,json"`
	Settings  map[string]int    `mariadb:"settings,msgpack"`
	Avatar    string            `mariadb:"avatar,binary-twoway"`
	Note      sql.NullString    `mariadb:"note"`
	CreatedAt time.Time         `mariadb:"createdAt"`
	Scratch   map[string]string `mariadb:"-"`
	Region    string
	internal  string
	Audit
}

func ptr[T any](v T) *T {
	return &v
}
