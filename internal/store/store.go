package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB *gorm.DB
}

// GetOrCreateCustomer resolves a customer by email, inserting a row when the
// address has never been seen. The insert is a conditional upsert so two
// concurrent first messages cannot produce duplicate rows. The returned bool
// reports whether this call created the customer.
func (s *Store) GetOrCreateCustomer(ctx context.Context, email, name string) (Customer, bool, error) {
	c := Customer{Email: email, Name: name}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&c)
	if res.Error != nil {
		return Customer{}, false, res.Error
	}
	created := res.RowsAffected == 1

	var out Customer
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&out).Error; err != nil {
		return Customer{}, false, err
	}
	return out, created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uint64) (Customer, error) {
	var c Customer
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// TouchCustomer bumps last_interaction; last write wins under concurrency.
func (s *Store) TouchCustomer(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", id).
		Update("last_interaction", time.Now()).Error
}

func (s *Store) SetNotionPageID(ctx context.Context, customerID uint64, pageID string) error {
	return s.DB.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", customerID).
		Update("notion_page_id", pageID).Error
}

// GetOrCreateConversation resolves a conversation by session id, creating it
// on the first message of a session.
func (s *Store) GetOrCreateConversation(ctx context.Context, sessionID string, customerID uint64) (Conversation, error) {
	conv := Conversation{SessionID: sessionID, CustomerID: customerID, Status: "active", Channel: "web"}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&conv)
	if res.Error != nil {
		return Conversation{}, res.Error
	}

	var out Conversation
	if err := s.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&out).Error; err != nil {
		return Conversation{}, err
	}
	return out, nil
}

func (s *Store) GetConversation(ctx context.Context, id uint64) (Conversation, error) {
	var conv Conversation
	if err := s.DB.WithContext(ctx).First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	return conv, nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID uint64, role, content string) (Message, error) {
	m := Message{ConversationID: conversationID, Role: role, Content: content}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return Message{}, err
	}
	return m, nil
}

// History returns the conversation's messages oldest first. A limit of zero
// or less means no cap; the memory extractor depends on seeing the whole
// transcript.
func (s *Store) History(ctx context.Context, conversationID uint64, limit int) ([]Message, error) {
	q := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var msgs []Message
	err := q.Find(&msgs).Error
	return msgs, err
}

func (s *Store) CountMessages(ctx context.Context, conversationID uint64) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}

// LogEvent appends an analytics event. Best-effort callers ignore the error.
func (s *Store) LogEvent(ctx context.Context, eventType string, customerID, conversationID uint64, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := AnalyticsEvent{
		ID:             uuid.NewString(),
		EventType:      eventType,
		CustomerID:     customerID,
		ConversationID: conversationID,
		Payload:        b,
	}
	return s.DB.WithContext(ctx).Create(&ev).Error
}
