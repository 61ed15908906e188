package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rukhmanov/kwadro-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// sqlite takes one writer at a time anyway; pinning the pool to a single
	// connection keeps the shared in-memory database alive and lock-free.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrateAll(db))
	return db
}

func TestGetOrCreateSession(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	created, err := svc.GetOrCreateSession("token-a")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, "token-a", created.SessionID)
	assert.True(t, created.IsActive)

	again, err := svc.GetOrCreateSession("token-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	other, err := svc.GetOrCreateSession("token-b")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestGetOrCreateSession_Concurrent(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	const workers = 8
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := svc.GetOrCreateSession("shared-token")
			if assert.NoError(t, err) {
				ids[i] = session.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every racer must land on the same row")
	}
}

func TestAppendMessage(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	t.Run("creates session lazily", func(t *testing.T) {
		msg, err := svc.AppendMessage("lazy-token", AppendMessageInput{
			Username: AnonymousUsername,
			Message:  "Здравствуйте",
		})
		require.NoError(t, err)
		require.NotZero(t, msg.ID)

		session, err := svc.GetSession("lazy-token")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, session.ID, msg.SessionID)
	})

	t.Run("visitor message sets unread", func(t *testing.T) {
		_, err := svc.AppendMessage("unread-token", AppendMessageInput{
			Username: AnonymousUsername,
			Message:  "вопрос",
		})
		require.NoError(t, err)

		session, err := svc.GetSession("unread-token")
		require.NoError(t, err)
		assert.True(t, session.HasUnreadMessages)
	})

	t.Run("admin reply clears unread", func(t *testing.T) {
		_, err := svc.AppendMessage("reply-token", AppendMessageInput{
			Username: AnonymousUsername,
			Message:  "вопрос",
		})
		require.NoError(t, err)

		_, err = svc.AppendMessage("reply-token", AppendMessageInput{
			Username: "Администратор",
			Message:  "ответ",
			IsAdmin:  true,
		})
		require.NoError(t, err)

		session, err := svc.GetSession("reply-token")
		require.NoError(t, err)
		assert.False(t, session.HasUnreadMessages)
	})

	t.Run("phone sticks to session", func(t *testing.T) {
		_, err := svc.AppendMessage("phone-token", AppendMessageInput{
			Username: AnonymousUsername,
			Message:  "+7 900 000-00-00",
			Phone:    "+7 900 000-00-00",
		})
		require.NoError(t, err)

		_, err = svc.AppendMessage("phone-token", AppendMessageInput{
			Username: AnonymousUsername,
			Message:  "ещё вопрос",
		})
		require.NoError(t, err)

		session, err := svc.GetSession("phone-token")
		require.NoError(t, err)
		assert.Equal(t, "+7 900 000-00-00", session.Phone)
	})
}

func TestListSessionMessages(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	t.Run("unknown token yields empty list", func(t *testing.T) {
		messages, err := svc.ListSessionMessages("never-seen")
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("returns oldest first", func(t *testing.T) {
		for i := 1; i <= 5; i++ {
			_, err := svc.AppendMessage("history-token", AppendMessageInput{
				Username: AnonymousUsername,
				Message:  fmt.Sprintf("сообщение %d", i),
			})
			require.NoError(t, err)
		}

		messages, err := svc.ListSessionMessages("history-token")
		require.NoError(t, err)
		require.Len(t, messages, 5)
		for i, msg := range messages {
			assert.Equal(t, fmt.Sprintf("сообщение %d", i+1), msg.Message)
		}
	})
}

func TestListAllSessions(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	// A bare join creates no row at all, so only message-bearing sessions
	// can ever show up.
	_, err := svc.GetOrCreateSession("silent-token")
	require.NoError(t, err)

	_, err = svc.AppendMessage("first-token", AppendMessageInput{
		Username: AnonymousUsername, Message: "a",
	})
	require.NoError(t, err)
	_, err = svc.AppendMessage("second-token", AppendMessageInput{
		Username: AnonymousUsername, Message: "b",
	})
	require.NoError(t, err)

	sessions, err := svc.ListAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, session := range sessions {
		assert.NotEqual(t, "silent-token", session.SessionID)
	}
	// Most recently active first.
	assert.Equal(t, "second-token", sessions[0].SessionID)
	assert.Equal(t, "first-token", sessions[1].SessionID)

	// New activity moves a session back to the top.
	_, err = svc.AppendMessage("first-token", AppendMessageInput{
		Username: AnonymousUsername, Message: "c",
	})
	require.NoError(t, err)

	sessions, err = svc.ListAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "first-token", sessions[0].SessionID)
}

func TestChatNumber(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	for _, token := range []string{"one", "two", "three"} {
		_, err := svc.AppendMessage(token, AppendMessageInput{
			Username: AnonymousUsername, Message: "привет",
		})
		require.NoError(t, err)
	}

	// Newest session carries the highest number.
	n, err := svc.ChatNumber("three")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.ChatNumber("one")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.ChatNumber("missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMarkSessionRead(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	_, err := svc.AppendMessage("read-token", AppendMessageInput{
		Username: AnonymousUsername, Message: "вопрос",
	})
	require.NoError(t, err)

	before, err := svc.GetSession("read-token")
	require.NoError(t, err)
	require.True(t, before.HasUnreadMessages)

	require.NoError(t, svc.MarkSessionRead("read-token"))

	after, err := svc.GetSession("read-token")
	require.NoError(t, err)
	assert.False(t, after.HasUnreadMessages)
	// Reading must not bump the recency ordering.
	assert.Equal(t, before.UpdatedAt.Unix(), after.UpdatedAt.Unix())
}

func TestCountVisitorMessages(t *testing.T) {
	svc := NewChatService(newTestDB(t))

	count, err := svc.CountVisitorMessages("count-token")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = svc.AppendMessage("count-token", AppendMessageInput{
		Username: AnonymousUsername, Message: "первое",
	})
	require.NoError(t, err)
	_, err = svc.AppendMessage("count-token", AppendMessageInput{
		Username: "Администратор", Message: "ответ", IsAdmin: true,
	})
	require.NoError(t, err)

	count, err = svc.CountVisitorMessages("count-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "admin messages do not count")
}
