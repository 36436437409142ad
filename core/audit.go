package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAuditSink keeps audit events in memory, newest last. Used by tests
// and as a fallback when no persistent sink is wired.
type MemoryAuditSink struct {
	mu     sync.Mutex
	events []AuditEvent
	Now    func() time.Time
}

func NewMemoryAuditSink() *MemoryAuditSink {
	return &MemoryAuditSink{
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryAuditSink) Log(_ context.Context, event AuditEvent) error {
	if s == nil {
		return fmt.Errorf("core: audit sink is nil")
	}
	if strings.TrimSpace(event.Action) == "" {
		return fmt.Errorf("core: audit action is required")
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryAuditSink) ListAuditTrail(_ context.Context, filter AuditTrailFilter) (AuditTrailPage, error) {
	if s == nil {
		return AuditTrailPage{}, fmt.Errorf("core: audit sink is nil")
	}
	s.mu.Lock()
	matched := make([]AuditEvent, 0, len(s.events))
	for _, event := range s.events {
		if !matchAuditFilter(event, filter) {
			continue
		}
		matched = append(matched, event)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginateAuditTrail(matched, filter), nil
}

func (s *MemoryAuditSink) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func matchAuditFilter(event AuditEvent, filter AuditTrailFilter) bool {
	if filter.ProfileID != nil {
		if event.ProfileID == nil || *event.ProfileID != *filter.ProfileID {
			return false
		}
	}
	if action := strings.TrimSpace(filter.Action); action != "" && event.Action != action {
		return false
	}
	if group := strings.TrimSpace(filter.Group); group != "" && event.Group != group {
		return false
	}
	if filter.From != nil && event.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && event.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

func paginateAuditTrail(events []AuditEvent, filter AuditTrailFilter) AuditTrailPage {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 50
	}
	total := len(events)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return AuditTrailPage{
		Items:   append([]AuditEvent(nil), events[start:end]...),
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: end < total,
	}
}

var (
	_ AuditSink        = (*MemoryAuditSink)(nil)
	_ AuditTrailReader = (*MemoryAuditSink)(nil)
)
