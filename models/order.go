package models

import "time"

const (
	OrderStatusNew       = "new"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDone      = "done"
	OrderStatusCancelled = "cancelled"
)

// Order captures a cart at checkout time. Line items copy the product name
// and price so later catalog edits do not rewrite order history.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	SessionID string      `json:"sessionId" gorm:"index;size:128"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email"`
	Comment   string      `json:"comment" gorm:"type:text"`
	Total     float64     `json:"total" gorm:"type:decimal(10,2)"`
	Status    string      `json:"status" gorm:"default:'new'"`
	Items     []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"orderId" gorm:"index"`
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" gorm:"type:decimal(10,2)"`
	Quantity  int     `json:"quantity"`
}
