package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&Customer{}, &Conversation{}, &Message{}, &SupportTicket{}, &AnalyticsEvent{},
	))
	return &Store{DB: gdb}
}

func TestGetOrCreateCustomer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	c1, created, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Ana")
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, c1.ID)
	require.Equal(t, "new", c1.Status)

	c2, created, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Someone Else")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, c1.ID, c2.ID)
	require.Equal(t, "Ana", c2.Name)

	var n int64
	require.NoError(t, s.DB.Model(&Customer{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestGetOrCreateConversation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	customer, _, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Ana")
	require.NoError(t, err)

	conv1, err := s.GetOrCreateConversation(ctx, "sess-1", customer.ID)
	require.NoError(t, err)
	require.Equal(t, "active", conv1.Status)
	require.Equal(t, "web", conv1.Channel)

	conv2, err := s.GetOrCreateConversation(ctx, "sess-1", customer.ID)
	require.NoError(t, err)
	require.Equal(t, conv1.ID, conv2.ID)

	conv3, err := s.GetOrCreateConversation(ctx, "sess-2", customer.ID)
	require.NoError(t, err)
	require.NotEqual(t, conv1.ID, conv3.ID)
}

func TestHistoryOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	customer, _, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Ana")
	require.NoError(t, err)
	conv, err := s.GetOrCreateConversation(ctx, "sess-1", customer.ID)
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		_, err := s.AppendMessage(ctx, conv.ID, RoleUser, content)
		require.NoError(t, err)
	}

	msgs, err := s.History(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "third", msgs[2].Content)

	n, err := s.CountMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestHistoryLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	customer, _, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Ana")
	require.NoError(t, err)
	conv, err := s.GetOrCreateConversation(ctx, "sess-1", customer.ID)
	require.NoError(t, err)

	for i := 1; i <= 60; i++ {
		_, err := s.AppendMessage(ctx, conv.ID, RoleUser, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	capped, err := s.History(ctx, conv.ID, 50)
	require.NoError(t, err)
	require.Len(t, capped, 50)

	// zero means uncapped
	all, err := s.History(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 60)
	require.Equal(t, "msg-60", all[59].Content)
}

func TestTouchCustomer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	customer, _, err := s.GetOrCreateCustomer(ctx, "ana@example.com", "Ana")
	require.NoError(t, err)
	require.Nil(t, customer.LastInteraction)

	require.NoError(t, s.TouchCustomer(ctx, customer.ID))

	got, err := s.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastInteraction)
}

func TestGetCustomerNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetCustomer(context.Background(), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogEvent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogEvent(ctx, "message_processed", 1, 2, map[string]any{
		"message_length": 12,
	}))

	var events []AnalyticsEvent
	require.NoError(t, s.DB.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, "message_processed", events[0].EventType)
	require.NotEmpty(t, events[0].ID)
	require.JSONEq(t, `{"message_length":12}`, string(events[0].Payload))
}
