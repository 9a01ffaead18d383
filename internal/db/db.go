package db

import (
	"fmt"

	"concierge/internal/memory"
	"concierge/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func Models() []any {
	return []any{
		&store.Customer{},
		&store.Conversation{},
		&store.Message{},
		&store.SupportTicket{},
		&store.AnalyticsEvent{},
		&memory.Memory{},
	}
}

// AutoMigrateAndIndexes creates the schema plus Postgres-only indexes that
// GORM tags cannot express.
func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_messages_conv_ts on messages(conversation_id, created_at asc);`,
		`create index if not exists idx_memory_active on customer_memory(customer_id, is_active) where is_active = true;`,
		`create index if not exists idx_conversations_started on conversations(started_at desc);`,
		`create index if not exists idx_events_type_ts on analytics_events(event_type, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
