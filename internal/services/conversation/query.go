package conversation

import (
	"context"
	"fmt"

	"github.com/archpointlabs/milo/internal/domain"
	convrepo "github.com/archpointlabs/milo/internal/repository/conversation"
)

// MaxListLimit caps how many records the dashboard loads at once.
const MaxListLimit = 1000

// QueryError is a read-side storage failure. Callers may retry.
type QueryError struct {
	Operation string
	Cause     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("conversation query %s failed: %v", e.Operation, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

type QueryService struct {
	repo   convrepo.ConversationRepository
	logger Logger
}

func NewQueryService(repo convrepo.ConversationRepository, logger Logger) *QueryService {
	return &QueryService{repo: repo, logger: logger}
}

// ListRecent returns up to limit records, newest first. A limit outside
// 1..MaxListLimit is treated as MaxListLimit.
func (s *QueryService) ListRecent(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	records, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Error fetching conversations", "limit", limit, "error", err)
		return nil, &QueryError{Operation: "listRecent", Cause: err}
	}
	return records, nil
}
