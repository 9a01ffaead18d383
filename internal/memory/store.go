package memory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Memories below this confidence are deactivated by the maintenance sweep.
const MinConfidence = 0.3

const noMemoriesSummary = "No previous information about this customer."

type Store struct {
	DB *gorm.DB
}

type UpsertOptions struct {
	Confidence    float64 // zero means unspecified; defaults to 1.0
	Source        string  // defaults to "conversation"
	ExpiresInDays int     // zero means no expiry
	Metadata      map[string]any
}

// Upsert writes one memory. An existing row for (customer, type, key) is
// updated in place, re-activated, and gets a fresh updated_at; the expiry of
// an existing row is left alone.
func (s *Store) Upsert(ctx context.Context, customerID uint64, memoryType, key, value string, opts UpsertOptions) error {
	if opts.Confidence == 0 {
		opts.Confidence = 1.0
	}
	if opts.Source == "" {
		opts.Source = SourceConversation
	}

	var expiresAt *time.Time
	if opts.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, opts.ExpiresInDays)
		expiresAt = &t
	}

	var meta json.RawMessage
	if opts.Metadata != nil {
		b, err := json.Marshal(opts.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}

	m := Memory{
		CustomerID: customerID,
		MemoryType: memoryType,
		Key:        key,
		Value:      value,
		Confidence: opts.Confidence,
		Source:     opts.Source,
		ExpiresAt:  expiresAt,
		IsActive:   true,
		Metadata:   meta,
	}

	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "memory_type"}, {Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      value,
				"confidence": opts.Confidence,
				"metadata":   meta,
				"is_active":  true,
				"updated_at": time.Now(),
			}),
		}).
		Create(&m).Error
}

type ListOptions struct {
	Type       string
	ActiveOnly bool
	Limit      int // defaults to 100
}

// List returns memories newest-updated first. ActiveOnly excludes
// deactivated and expired rows.
func (s *Store) List(ctx context.Context, customerID uint64, opts ListOptions) ([]Memory, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	q := s.DB.WithContext(ctx).Where("customer_id = ?", customerID)
	if opts.ActiveOnly {
		q = q.Where("is_active = ?", true).
			Where("expires_at IS NULL OR expires_at > ?", time.Now())
	}
	if opts.Type != "" {
		q = q.Where("memory_type = ?", opts.Type)
	}

	var out []Memory
	err := q.Order("updated_at desc").Limit(opts.Limit).Find(&out).Error
	return out, err
}

// DeactivateStale marks inactive every memory past its expiry or below the
// confidence floor and reports how many rows changed.
func (s *Store) DeactivateStale(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&Memory{}).
		Where("is_active = ?", true).
		Where("(expires_at IS NOT NULL AND expires_at < ?) OR confidence < ?", time.Now(), MinConfidence).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// summary section order is fixed; empty groups are omitted.
var summarySections = []struct {
	memoryType string
	heading    string
}{
	{TypePreference, "Preferences:"},
	{TypeFact, "Key Facts:"},
	{TypePurchaseIntent, "Purchase Interests:"},
	{TypeConcern, "Concerns:"},
	{TypeGoal, "Goals:"},
}

// Summary renders the customer's active memories into the grouped text block
// injected into the chat system prompt.
func (s *Store) Summary(ctx context.Context, customerID uint64) (string, error) {
	memories, err := s.List(ctx, customerID, ListOptions{ActiveOnly: true})
	if err != nil {
		return "", err
	}
	if len(memories) == 0 {
		return noMemoriesSummary, nil
	}

	grouped := make(map[string][]string)
	for _, m := range memories {
		grouped[m.MemoryType] = append(grouped[m.MemoryType], m.Key+": "+m.Value)
	}

	var b strings.Builder
	b.WriteString("What we know about this customer:\n")
	for _, sec := range summarySections {
		lines, ok := grouped[sec.memoryType]
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(sec.heading)
		b.WriteString("\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
