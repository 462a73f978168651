package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/archpointlabs/milo/internal/database"
	"github.com/archpointlabs/milo/internal/domain"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	current := c.t
	c.t = c.t.Add(time.Minute)
	return current
}

func newTestRepo(t *testing.T, start time.Time) (ConversationRepository, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	clock := &stepClock{t: start}
	return NewConversationRepositoryWithClock(db, clock.now), db
}

func mustConversation(t *testing.T, session string, n int) *domain.Conversation {
	t.Helper()
	messages := make([]domain.ChatMessage, n)
	for i := range messages {
		messages[i] = domain.ChatMessage{Role: domain.RoleUser, Content: "hello"}
	}
	conv, err := domain.NewConversation(session, messages, "reply to "+session, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	return conv
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo, _ := newTestRepo(t, start)
	ctx := context.Background()

	conv := mustConversation(t, "s1", 2)
	conv.MessageCount = 99
	require.NoError(t, repo.Create(ctx, conv))

	assert.NotZero(t, conv.ID)
	require.NotNil(t, conv.CreatedAt)
	assert.True(t, conv.CreatedAt.Equal(start))
	assert.Equal(t, 2, conv.MessageCount, "message count always follows the stored list")

	records, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.Equal(t, "reply to s1", records[0].AIResponse)
	assert.Equal(t, "10.0.0.1", records[0].IP)
	assert.Equal(t, "test-agent", records[0].UserAgent)
	assert.Equal(t, 2, records[0].MessageCount)
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	repo, _ := newTestRepo(t, time.Now())
	ctx := context.Background()

	assert.ErrorIs(t, repo.Create(ctx, nil), ErrInvalidConversation)
	assert.ErrorIs(t, repo.Create(ctx, mustConversation(t, "  ", 1)), ErrInvalidConversation)

	existing := mustConversation(t, "s", 1)
	existing.ID = 7
	assert.ErrorIs(t, repo.Create(ctx, existing), ErrInvalidConversation)
}

func TestFindRecentOrdersNewestFirstWithUndatedLast(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo, db := newTestRepo(t, start)
	ctx := context.Background()

	for _, session := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, mustConversation(t, session, 1)))
	}
	undated := mustConversation(t, "undated", 1)
	require.NoError(t, db.Create(undated).Error)

	records, err := repo.FindRecent(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, records, 4)

	var sessions []string
	for _, r := range records {
		sessions = append(sessions, r.SessionID)
	}
	assert.Equal(t, []string{"third", "second", "first", "undated"}, sessions)
	assert.Nil(t, records[3].CreatedAt)
}

func TestFindRecentBreaksTimestampTiesByInsertionOrder(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewConversationRepositoryWithClock(db, func() time.Time { return fixed })
	ctx := context.Background()

	for _, session := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, mustConversation(t, session, 1)))
	}

	records, err := repo.FindRecent(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, records, 3)

	var sessions []string
	for _, r := range records {
		sessions = append(sessions, r.SessionID)
		assert.True(t, r.CreatedAt.Equal(fixed))
	}
	assert.Equal(t, []string{"c", "b", "a"}, sessions, "latest insert first on equal timestamps")

	since, err := repo.FindSince(ctx, fixed.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 3)
	assert.Equal(t, "c", since[0].SessionID)
	assert.Equal(t, "a", since[2].SessionID)
}

func TestFindRecentHonoursLimit(t *testing.T) {
	repo, _ := newTestRepo(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, mustConversation(t, "s", 1)))
	}

	records, err := repo.FindRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindSinceIsInclusive(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo, _ := newTestRepo(t, start)
	ctx := context.Background()

	// Created at 12:00, 12:01, 12:02.
	for _, session := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, mustConversation(t, session, 1)))
	}

	records, err := repo.FindSince(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].SessionID)
	assert.Equal(t, "b", records[1].SessionID)

	records, err = repo.FindSince(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPing(t *testing.T) {
	repo, _ := newTestRepo(t, time.Now())
	assert.NoError(t, repo.Ping(context.Background()))
}
