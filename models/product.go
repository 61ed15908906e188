package models

import "time"

type Product struct {
	ID            uint                   `json:"id" gorm:"primaryKey"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description" gorm:"type:text"`
	Price         float64                `json:"price" gorm:"type:decimal(10,2)"`
	OldPrice      float64                `json:"oldPrice,omitempty" gorm:"type:decimal(10,2)"`
	Image         string                 `json:"image"`
	Images        string                 `json:"images"` // comma-separated storage keys
	Video         string                 `json:"video"`
	Stock         int                    `json:"stock" gorm:"default:0"`
	IsActive      bool                   `json:"isActive" gorm:"default:true"`
	IsFeatured    bool                   `json:"isFeatured" gorm:"default:false"`
	Categories    []Category             `json:"categories,omitempty" gorm:"many2many:product_categories"`
	Specifications []ProductSpecification `json:"specifications,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type ProductSpecification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"productId" gorm:"index"`
	Name      string    `json:"name"`
	Value     string    `json:"value" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}
