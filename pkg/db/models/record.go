package models

import "time"

// Record carries the identity and timestamps every stored document shares.
// Column and bson names match so partial updates address both backends.
type Record struct {
	ID        string    `gorm:"column:id;primaryKey" bson:"_id" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" bson:"updated_at" json:"updated_at"`
}

func (r *Record) DocumentID() string { return r.ID }

func (r *Record) AssignID(id string) { r.ID = id }

// Touch stamps created_at once and updated_at on every write.
func (r *Record) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}
