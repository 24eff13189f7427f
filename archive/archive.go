// Package archive persists finished conversation transcripts for later
// review. Live sessions never touch the database; only the end-of-session
// path writes here.
package archive

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hirecj/agentsim/session"
)

// ConversationRecord is one archived conversation.
type ConversationRecord struct {
	ID           uint   `gorm:"primaryKey"`
	SessionID    string `gorm:"index;size:64"`
	Conversation string `gorm:"size:64"`
	MerchantName string `gorm:"index;size:255"`
	ScenarioName string `gorm:"size:255"`
	WorkflowName string `gorm:"size:255"`
	Messages     int
	Errors       int
	StartedAt    time.Time
	ArchivedAt   time.Time
}

// MessageRecord is one archived message row.
type MessageRecord struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index"`
	Seq            int    `gorm:"index"`
	Sender         string `gorm:"size:255"`
	Content        string
	SentAt         time.Time
}

// Archive writes transcripts to a sqlite database.
type Archive struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the archive database and migrates its schema.
func Open(path string, zlog *zap.Logger) (*Archive, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if err := db.AutoMigrate(&ConversationRecord{}, &MessageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}
	return &Archive{
		db:     db,
		logger: zlog.With(zap.String("component", "archive")),
	}, nil
}

// SaveTranscript stores the session's full conversation. The message rows
// keep log order via their sequence number.
func (a *Archive) SaveTranscript(sess *session.Session) error {
	conv := sess.Conversation

	record := ConversationRecord{
		SessionID:    sess.ID,
		Conversation: conv.ID,
		MerchantName: conv.MerchantName,
		ScenarioName: conv.ScenarioName,
		WorkflowName: conv.WorkflowName,
		Messages:     sess.Metrics.Messages,
		Errors:       sess.Metrics.Errors,
		StartedAt:    conv.CreatedAt,
		ArchivedAt:   time.Now(),
	}

	return a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to archive conversation: %w", err)
		}
		for i, msg := range conv.Messages {
			row := MessageRecord{
				ConversationID: record.ID,
				Seq:            i,
				Sender:         string(msg.Sender),
				Content:        msg.Content,
				SentAt:         msg.Timestamp,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to archive message %d: %w", i, err)
			}
		}
		return nil
	})
}

// Transcript reloads an archived conversation's messages in log order.
func (a *Archive) Transcript(sessionID string) (*ConversationRecord, []MessageRecord, error) {
	var record ConversationRecord
	err := a.db.Where("session_id = ?", sessionID).First(&record).Error
	if err != nil {
		return nil, nil, fmt.Errorf("transcript not found for session %s: %w", sessionID, err)
	}

	var rows []MessageRecord
	if err := a.db.Where("conversation_id = ?", record.ID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load transcript messages: %w", err)
	}
	return &record, rows, nil
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
