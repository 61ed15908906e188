package models

import "gorm.io/gorm"

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&CategorySpecification{},
		&Product{},
		&ProductSpecification{},
		&CartItem{},
		&News{},
		&ContactRequest{},
		&Order{},
		&OrderItem{},
		&ChatSession{},
		&ChatMessage{},
		&Setting{},
	)
}
