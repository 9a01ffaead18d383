package store

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Customer is the identity record, keyed by email. Created on the first
// message from a new address, never deleted.
type Customer struct {
	ID              uint64 `gorm:"primaryKey"`
	Email           string `gorm:"uniqueIndex;not null"`
	Name            string
	Phone           string
	Status          string         `gorm:"not null;default:'new'"` // new/customer/vip
	Tags            pq.StringArray `gorm:"type:text[]"`
	LastInteraction *time.Time
	HubSpotID       string    `gorm:"column:hubspot_contact_id"`
	NotionPageID    string    `gorm:"column:notion_page_id"`
	CreatedAt       time.Time `gorm:"not null"`
}

// Conversation is one chat session, keyed by the client-generated session id.
type Conversation struct {
	ID         uint64    `gorm:"primaryKey"`
	SessionID  string    `gorm:"uniqueIndex;not null"`
	CustomerID uint64    `gorm:"index;not null"`
	StartedAt  time.Time `gorm:"index;not null;autoCreateTime"`
	EndedAt    *time.Time
	Status     string `gorm:"not null;default:'active'"` // active/ended
	Channel    string `gorm:"not null;default:'web'"`
}

// Message is append-only; ordering is by CreatedAt then ID.
type Message struct {
	ID             uint64    `gorm:"primaryKey"`
	ConversationID uint64    `gorm:"index;not null"`
	Role           string    `gorm:"not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index;not null;autoCreateTime"`
}

type SupportTicket struct {
	ID              uint64 `gorm:"primaryKey"`
	CustomerID      uint64 `gorm:"index;not null"`
	ConversationID  uint64 `gorm:"index"`
	TicketType      string
	Subject         string    `gorm:"not null"`
	Description     string    `gorm:"type:text;not null"`
	Status          string    `gorm:"not null;default:'open'"`
	HubSpotTicketID string    `gorm:"column:hubspot_ticket_id"`
	CreatedAt       time.Time `gorm:"not null"`
}

// AnalyticsEvent is an append-only log consumed by the admin dashboard.
type AnalyticsEvent struct {
	ID             string          `gorm:"primaryKey"`
	EventType      string          `gorm:"index;not null"`
	CustomerID     uint64          `gorm:"index"`
	ConversationID uint64          `gorm:"index"`
	Payload        json.RawMessage `gorm:"type:jsonb"`
	CreatedAt      time.Time       `gorm:"index;not null;autoCreateTime"`
}
