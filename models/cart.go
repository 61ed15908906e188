package models

import "time"

// CartItem is keyed by the same frontend-generated session token the chat
// uses, so an anonymous visitor keeps one cart across page loads.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"sessionId" gorm:"index;size:128"`
	ProductID uint      `json:"productId"`
	Product   Product   `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}
