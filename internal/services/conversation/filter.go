package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/archpointlabs/milo/internal/domain"
)

type Range string

const (
	RangeAll   Range = "all"
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

const previewLength = 100

// ParseRange accepts the dashboard's date filter values. Empty means all.
func ParseRange(value string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(value))); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return r, nil
	default:
		return "", fmt.Errorf("unknown range %q", value)
	}
}

// Filter narrows a listRecent result for the admin dashboard.
type Filter struct {
	Search string
	Range  Range
	// Location decides calendar days for RangeToday. Nil means UTC.
	Location *time.Location
}

// Apply keeps records matching both the search text and the date range.
// Records without a timestamp only survive RangeAll.
func (f Filter) Apply(records []domain.Conversation, now time.Time) []domain.Conversation {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Conversation, 0, len(records))
	for _, rec := range records {
		if !f.inRange(rec.CreatedAt, now) {
			continue
		}
		if search != "" && !matches(rec, search) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (f Filter) inRange(createdAt *time.Time, now time.Time) bool {
	switch f.Range {
	case "", RangeAll:
		return true
	}
	if createdAt == nil {
		return false
	}
	switch f.Range {
	case RangeToday:
		return sameDay(*createdAt, now, f.location())
	case RangeWeek:
		return !createdAt.Before(now.Add(-7 * 24 * time.Hour))
	case RangeMonth:
		return !createdAt.Before(now.Add(-30 * 24 * time.Hour))
	default:
		return false
	}
}

func (f Filter) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// matches searches the session id, the IP and the message JSON. Decoded
// contents are checked too so rows stored with escaped HTML characters
// still match.
func matches(rec domain.Conversation, search string) bool {
	if strings.Contains(strings.ToLower(rec.SessionID), search) ||
		strings.Contains(strings.ToLower(rec.IP), search) ||
		strings.Contains(strings.ToLower(string(rec.Messages)), search) {
		return true
	}
	messages, err := rec.ChatMessages()
	if err != nil {
		return false
	}
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Content), search) {
			return true
		}
	}
	return false
}

// Stats are the dashboard header counters.
type Stats struct {
	Total    int `json:"total"`
	Today    int `json:"today"`
	ThisWeek int `json:"this_week"`
}

// Summarize counts every record in Total and only dated ones in the windows.
func Summarize(records []domain.Conversation, now time.Time, loc *time.Location) Stats {
	today := Filter{Range: RangeToday, Location: loc}
	week := Filter{Range: RangeWeek, Location: loc}
	stats := Stats{Total: len(records)}
	for _, rec := range records {
		if today.inRange(rec.CreatedAt, now) {
			stats.Today++
		}
		if week.inRange(rec.CreatedAt, now) {
			stats.ThisWeek++
		}
	}
	return stats
}

// Preview is the first user message cut to 100 characters.
func Preview(rec domain.Conversation) string {
	messages, err := rec.ChatMessages()
	if err != nil {
		return "No messages"
	}
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > previewLength {
			return string(runes[:previewLength]) + "..."
		}
		return m.Content
	}
	return "No messages"
}
