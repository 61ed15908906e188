package models

import "time"

// ChatSession is a durable conversation between one site visitor and staff.
// SessionID is an opaque token generated on the frontend; connections rejoin
// by it after reloads and reconnects. The numeric ID is used as the FK for
// messages and to derive the human-facing chat number.
type ChatSession struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	SessionID         string        `json:"sessionId" gorm:"uniqueIndex;size:128"`
	Phone             string        `json:"phone"`
	HasUnreadMessages bool          `json:"hasUnreadMessages" gorm:"default:false"`
	IsActive          bool          `json:"isActive" gorm:"default:false"`
	Messages          []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username"`
	Message   string    `json:"message" gorm:"type:text"`
	IsAdmin   bool      `json:"isAdmin" gorm:"default:false"`
	Phone     string    `json:"phone,omitempty"`
	SessionID uint      `json:"sessionId" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
}
