package models

// All lists every stored document type, in dependency order.
func All() []any {
	return []any{
		&Role{},
		&User{},
		&Vendor{},
		&Category{},
		&Game{},
		&Winner{},
		&Report{},
		&Setting{},
		&Notification{},
	}
}
