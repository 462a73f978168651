package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/services"
	"github.com/archpointlabs/milo/internal/services/conversation"
)

// ConversationLister is satisfied by *conversation.QueryService.
type ConversationLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Conversation, error)
}

type ConversationHandler struct {
	lister   ConversationLister
	location *time.Location
	logger   services.Logger
	now      func() time.Time
}

func NewConversationHandler(lister ConversationLister, location *time.Location, logger services.Logger) *ConversationHandler {
	if location == nil {
		location = time.UTC
	}
	return &ConversationHandler{lister: lister, location: location, logger: logger, now: time.Now}
}

type conversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Count         int                   `json:"count"`
	Stats         conversation.Stats    `json:"stats"`
}

// ListConversations serves the admin dashboard. Optional query parameters:
// search, range (all|today|week|month) and limit (1..1000).
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	filter, limit, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.lister.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, "Failed to fetch conversations", http.StatusInternalServerError)
		return
	}

	now := h.now()
	filtered := filter.Apply(records, now)
	writeJSON(w, http.StatusOK, conversationsResponse{
		Conversations: filtered,
		Count:         len(filtered),
		Stats:         conversation.Summarize(records, now, h.location),
	})
}

// ExportConversationsCSV streams the filtered list as a CSV attachment.
func (h *ConversationHandler) ExportConversationsCSV(w http.ResponseWriter, r *http.Request) {
	filter, limit, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.lister.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, "Failed to export conversations", http.StatusInternalServerError)
		return
	}
	now := h.now()
	records = filter.Apply(records, now)

	filename := fmt.Sprintf("conversations_export_%s.csv", now.In(h.location).Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	header := []string{"ID", "SessionID", "IP", "UserAgent", "MessageCount", "CreatedAt", "Preview", "AIResponse"}
	if err := csvWriter.Write(header); err != nil {
		h.logger.Error("Error writing CSV header", "error", err)
		return
	}

	for _, rec := range records {
		createdAt := ""
		if rec.CreatedAt != nil {
			createdAt = rec.CreatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			strconv.FormatUint(uint64(rec.ID), 10),
			rec.SessionID,
			rec.IP,
			rec.UserAgent,
			strconv.Itoa(rec.MessageCount),
			createdAt,
			conversation.Preview(rec),
			rec.AIResponse,
		}
		if err := csvWriter.Write(row); err != nil {
			h.logger.Error("Error writing CSV record", "conversation_id", rec.ID, "error", err)
			return
		}
	}
	h.logger.Info("Exported conversations to CSV", "count", len(records))
}

func (h *ConversationHandler) parseQuery(r *http.Request) (conversation.Filter, int, error) {
	query := r.URL.Query()

	rng, err := conversation.ParseRange(query.Get("range"))
	if err != nil {
		return conversation.Filter{}, 0, err
	}

	limit := conversation.MaxListLimit
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > conversation.MaxListLimit {
			return conversation.Filter{}, 0, fmt.Errorf("limit must be between 1 and %d", conversation.MaxListLimit)
		}
	}

	return conversation.Filter{
		Search:   query.Get("search"),
		Range:    rng,
		Location: h.location,
	}, limit, nil
}
