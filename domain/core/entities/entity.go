package entities

import (
	"time"

	"hr-backend/pkg/utils"
)

// Kind names an entity type in its singular and plural forms. The two
// forms must differ so per-entity and collection cache keys never collide.
type Kind struct {
	Singular string
	Plural   string
}

var (
	KindUser       = Kind{Singular: "user", Plural: "users"}
	KindDepartment = Kind{Singular: "department", Plural: "departments"}
	KindSalary     = Kind{Singular: "salary", Plural: "salaries"}
	KindAttendance = Kind{Singular: "attendance", Plural: "attendances"}
)

// Kinds lists every kind served by the API.
func Kinds() []Kind {
	return []Kind{KindUser, KindDepartment, KindSalary, KindAttendance}
}

// Entity is implemented by pointers to every record type.
type Entity interface {
	EntityID() int64
	SetEntityID(id int64)
	Stamp(now time.Time)
	ApplyDefaults()
	Validate() error
}

// Base carries the fields shared by all records.
type Base struct {
	ID        int64     `json:"id" dynamodbav:"id"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

func (b *Base) EntityID() int64 { return b.ID }

func (b *Base) SetEntityID(id int64) { b.ID = id }

// Stamp sets CreatedAt on first save only.
func (b *Base) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now.UTC()
	}
}

func validate(e interface{}) error {
	return utils.ValidateStruct(e)
}
