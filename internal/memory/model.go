package memory

import (
	"encoding/json"
	"time"
)

// Memory types understood by the extractor and the summary renderer.
const (
	TypePreference     = "preference"
	TypeFact           = "fact"
	TypePurchaseIntent = "purchase_intent"
	TypeConcern        = "concern"
	TypeGoal           = "goal"
)

const (
	SourceConversation = "conversation"
	SourceAIExtraction = "ai_extraction"
)

// Memory is one structured fact about a customer. The unique index keeps a
// single row per (customer, type, key); rewrites update that row in place.
// Rows are deactivated, never hard-deleted.
type Memory struct {
	ID         uint64  `gorm:"primaryKey"`
	CustomerID uint64  `gorm:"uniqueIndex:uq_customer_memory_key;not null"`
	MemoryType string  `gorm:"uniqueIndex:uq_customer_memory_key;not null"`
	Key        string  `gorm:"uniqueIndex:uq_customer_memory_key;not null"`
	Value      string  `gorm:"type:text;not null"`
	Confidence float64 `gorm:"not null;default:1"`
	Source     string  `gorm:"not null;default:'conversation'"`
	ExpiresAt  *time.Time
	IsActive   bool            `gorm:"not null;default:true"`
	Metadata   json.RawMessage `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"index;not null"`
}

func (Memory) TableName() string { return "customer_memory" }
