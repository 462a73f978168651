package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/archpointlabs/milo/internal/domain"
)

var ErrInvalidConversation = errors.New("invalid conversation")

const newestFirst = "created_at IS NULL, created_at DESC, id DESC"

type gormConversationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewConversationRepository returns a gorm-backed repository using the wall clock.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return NewConversationRepositoryWithClock(db, time.Now)
}

// NewConversationRepositoryWithClock lets tests pin the insert timestamp.
func NewConversationRepositoryWithClock(db *gorm.DB, now func() time.Time) ConversationRepository {
	return &gormConversationRepository{db: db, now: now}
}

func (r *gormConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidConversation)
	}
	if strings.TrimSpace(conv.SessionID) == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidConversation)
	}
	if conv.ID != 0 {
		return fmt.Errorf("%w: record already has id %d", ErrInvalidConversation, conv.ID)
	}

	messages, err := conv.ChatMessages()
	if err != nil {
		return fmt.Errorf("%w: messages: %v", ErrInvalidConversation, err)
	}
	conv.MessageCount = len(messages)

	createdAt := r.now().UTC()
	conv.CreatedAt = &createdAt

	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		conv.CreatedAt = nil
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *gormConversationRepository) FindRecent(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		return []domain.Conversation{}, nil
	}
	var records []domain.Conversation
	err := r.db.WithContext(ctx).
		Order(newestFirst).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query recent conversations: %w", err)
	}
	return records, nil
}

func (r *gormConversationRepository) FindSince(ctx context.Context, since time.Time) ([]domain.Conversation, error) {
	var records []domain.Conversation
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since.UTC()).
		Order(newestFirst).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query conversations since %s: %w", since.UTC().Format(time.RFC3339), err)
	}
	return records, nil
}

func (r *gormConversationRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
