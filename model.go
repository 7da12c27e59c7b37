package restnest

import (
	"database/sql"
	"time"
)

type Modelable interface {
	Exists() bool
}

// A Model is the essential data points for primary ID-based models exposed through a resource,
// indicating when a record was created, last updated and soft deleted.
type Model struct {
	ID        uint        `db:"id" json:"id" gorm:"primaryKey"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
	DeletedAt DeletedTime `db:"deleted_at" json:"deletedAt"`
}

func (m Model) Exists() bool { return m.ID != 0 }

// DeletedTime is a nullable timestamp marking a record as soft deleted.
type DeletedTime struct {
	sql.NullTime
}

// IsDeleted asserts whether the record is soft deleted.
func (dt DeletedTime) IsDeleted() bool { return dt.Valid }
