package conversation

import (
	"context"
	"time"

	"github.com/archpointlabs/milo/internal/domain"
)

// ConversationRepository persists chat exchanges. Records are append-only.
type ConversationRepository interface {
	// Create inserts a record and assigns its ID and CreatedAt.
	Create(ctx context.Context, conv *domain.Conversation) error
	// FindRecent returns at most limit records, newest first. Records
	// without a timestamp sort after every dated record.
	FindRecent(ctx context.Context, limit int) ([]domain.Conversation, error)
	// FindSince returns every record created at or after since, newest first.
	FindSince(ctx context.Context, since time.Time) ([]domain.Conversation, error)
	Ping(ctx context.Context) error
}
