package models

type Category struct {
	Record `gorm:"embedded" bson:",inline"`
	Name        string `gorm:"column:name;not null" bson:"name"`
	Slug        string `gorm:"column:slug;not null;uniqueIndex" bson:"slug"`
	Description string `gorm:"column:description" bson:"description"`
	Active      bool   `gorm:"column:active;not null;default:true" bson:"active"`
}

func (Category) TableName() string { return "categories" }
