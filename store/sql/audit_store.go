package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-txdispatch/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditStore is the append-only dispatch audit trail backed by tx_audit_log.
// Writes are best-effort from the dispatcher's point of view; reads page
// newest first.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*auditRecord](db, auditHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

func (s *AuditStore) Log(ctx context.Context, event core.AuditEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	action := strings.TrimSpace(event.Action)
	if action == "" {
		return fmt.Errorf("sqlstore: audit action is required")
	}
	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := event.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	record := &auditRecord{
		ID:           id,
		Action:       action,
		UserID:       event.UserID,
		ProfileID:    event.ProfileID,
		HandlerGroup: strings.TrimSpace(event.Group),
		HandlerName:  strings.TrimSpace(event.Name),
		Details:      event.Details,
		DurationMS:   event.DurationMS,
		CreatedAt:    createdAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *AuditStore) ListAuditTrail(ctx context.Context, filter core.AuditTrailFilter) (core.AuditTrailPage, error) {
	if s == nil || s.db == nil {
		return core.AuditTrailPage{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 50
	}

	query := s.db.NewSelect().Model((*auditRecord)(nil))
	if filter.ProfileID != nil {
		query = query.Where("profile_id = ?", *filter.ProfileID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if group := strings.TrimSpace(filter.Group); group != "" {
		query = query.Where("handler_group = ?", group)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}

	var records []auditRecord
	total, err := query.
		Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx, &records)
	if err != nil {
		return core.AuditTrailPage{}, err
	}

	items := make([]core.AuditEvent, 0, len(records))
	for _, record := range records {
		items = append(items, core.AuditEvent{
			ID:         record.ID,
			Action:     record.Action,
			UserID:     record.UserID,
			ProfileID:  record.ProfileID,
			Group:      record.HandlerGroup,
			Name:       record.HandlerName,
			Details:    record.Details,
			DurationMS: record.DurationMS,
			CreatedAt:  record.CreatedAt,
		})
	}
	return core.AuditTrailPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: page*perPage < total,
	}, nil
}
