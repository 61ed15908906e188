package models

import "time"

type Category struct {
	ID             uint                    `json:"id" gorm:"primaryKey"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description" gorm:"type:text"`
	Image          string                  `json:"image"`
	Order          int                     `json:"order" gorm:"column:sort;default:0"`
	Products       []Product               `json:"products,omitempty" gorm:"many2many:product_categories"`
	Specifications []CategorySpecification `json:"specifications,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// CategorySpecification names a characteristic products of this category
// are expected to fill in (e.g. "Двигатель", "Мощность").
type CategorySpecification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CategoryID uint      `json:"categoryId" gorm:"index"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}
