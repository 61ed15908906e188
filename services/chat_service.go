package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rukhmanov/kwadro-backend/models"
)

// AnonymousUsername is what the widget sends for visitors who have not
// introduced themselves.
const AnonymousUsername = "Гость"

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

type AppendMessageInput struct {
	Username string
	Message  string
	IsAdmin  bool
	Phone    string
}

// GetOrCreateSession returns the session for the given frontend token,
// inserting it on first sight. Two connections racing on the same token
// (a tab reload overlapping a send) both land on the same row: the insert
// rides the unique index on session_id and a conflict falls back to a
// fetch instead of erroring.
func (s *ChatService) GetOrCreateSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session = models.ChatSession{
		SessionID: sessionID,
		IsActive:  true,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(&session)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race, the other caller's row wins.
		if err := s.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
			return nil, err
		}
	}
	return &session, nil
}

// AppendMessage resolves the session (creating it as needed), refreshes its
// unread/active bookkeeping and stores the message. There is no "message to
// nonexistent session" failure mode: the session is created lazily here,
// which is also the only place sessions come into existence.
func (s *ChatService) AppendMessage(sessionID string, in AppendMessageInput) (*models.ChatMessage, error) {
	session, err := s.GetOrCreateSession(sessionID)
	if err != nil {
		return nil, err
	}

	var message models.ChatMessage
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session.HasUnreadMessages = !in.IsAdmin
		session.IsActive = true
		if in.Phone != "" {
			session.Phone = in.Phone
		}
		if err := tx.Save(session).Error; err != nil {
			return err
		}

		message = models.ChatMessage{
			Username:  in.Username,
			Message:   in.Message,
			IsAdmin:   in.IsAdmin,
			Phone:     in.Phone,
			SessionID: session.ID,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListSessionMessages returns the session's messages oldest first. A token
// with no session on record yields an empty list, not an error: the widget
// joins before the visitor has said anything.
func (s *ChatService) ListSessionMessages(sessionID string) ([]models.ChatMessage, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []models.ChatMessage{}, nil
	}
	var messages []models.ChatMessage
	err = s.db.Where("session_id = ?", session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListAllSessions returns sessions that have at least one message, most
// recently active first. Sessions with zero messages are invisible to
// staff: a bare join creates nothing and an empty row would only clutter
// the dashboard.
func (s *ChatService) ListAllSessions() ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	sub := s.db.Model(&models.ChatMessage{}).Distinct("session_id")
	err := s.db.Where("id IN (?)", sub).
		Order("updated_at DESC, id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// MarkSessionRead clears the unread flag. Uses UpdateColumn so reading a
// chat does not touch updated_at and reshuffle the recency ordering.
func (s *ChatService) MarkSessionRead(sessionID string) error {
	return s.db.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		UpdateColumn("has_unread_messages", false).Error
}

// CountVisitorMessages counts non-admin messages in the session; the
// gateway arms the auto-reply when this comes back exactly 1.
func (s *ChatService) CountVisitorMessages(sessionID string) (int64, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, nil
	}
	var count int64
	err = s.db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND is_admin = ?", session.ID, false).
		Count(&count).Error
	return count, err
}

// ChatNumber derives the human-facing ordinal for a session: the newest
// session in the recency listing gets the highest number, the oldest gets
// 1. It is recomputed per call because relative positions shift whenever
// any other session receives activity. Concurrent first messages may
// transiently compute colliding numbers; the label is for humans, not a
// key.
func (s *ChatService) ChatNumber(sessionID string) (int, error) {
	sessions, err := s.ListAllSessions()
	if err != nil {
		return 0, err
	}
	for i, sess := range sessions {
		if sess.SessionID == sessionID {
			return len(sessions) - i, nil
		}
	}
	return 0, nil
}

// GetSession looks the session up without creating it; nil when the token
// has never produced a message.
func (s *ChatService) GetSession(sessionID string) (*models.ChatSession, error) {
	return s.findSession(sessionID)
}

func (s *ChatService) findSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
