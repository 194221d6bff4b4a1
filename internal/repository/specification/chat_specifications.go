package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByChatSessionID filters messages by their conversation.
type ByChatSessionID struct {
	ID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ID)
}

// ByUserID filters by owner.
type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// MessageOwnedBy keeps messages whose session belongs to the user.
type MessageOwnedBy struct {
	UserID uuid.UUID
}

func (s MessageOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Table("chat_sessions").Select("id").Where("user_id = ?", s.UserID))
}
