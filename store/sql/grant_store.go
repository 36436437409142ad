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

// GrantStore persists permission triples in tx_permissions and serves the
// handler catalog from tx_handlers. InsertGrant relies on the unique index
// over (profile_id, handler_group, handler_name): a conflicting insert is a
// no-op reported through the affected row count, which keeps the operation
// idempotent without a read-before-write.
type GrantStore struct {
	db          *bun.DB
	grantRepo   repository.Repository[*grantRecord]
	handlerRepo repository.Repository[*handlerRecord]
}

func NewGrantStore(db *bun.DB) (*GrantStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	grantRepo := repository.NewRepository[*grantRecord](db, grantHandlers())
	if validator, ok := grantRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid grant repository wiring: %w", err)
		}
	}
	handlerRepo := repository.NewRepository[*handlerRecord](db, handlerCatalogHandlers())
	if validator, ok := handlerRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid handler repository wiring: %w", err)
		}
	}
	return &GrantStore{db: db, grantRepo: grantRepo, handlerRepo: handlerRepo}, nil
}

func (s *GrantStore) QueryGrants(ctx context.Context) ([]core.PermissionEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: grant store is not configured")
	}
	var records []grantRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("profile_id ASC", "handler_group ASC", "handler_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]core.PermissionEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, core.PermissionEntry{
			Profile: record.ProfileID,
			Group:   strings.TrimSpace(record.HandlerGroup),
			Name:    strings.TrimSpace(record.HandlerName),
		})
	}
	return entries, nil
}

func (s *GrantStore) QueryCatalog(ctx context.Context) ([]core.CatalogEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: grant store is not configured")
	}
	var records []handlerRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("handler_group ASC", "handler_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]core.CatalogEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, core.CatalogEntry{
			Group: strings.TrimSpace(record.HandlerGroup),
			Name:  strings.TrimSpace(record.HandlerName),
		})
	}
	return entries, nil
}

func (s *GrantStore) InsertGrant(ctx context.Context, entry core.PermissionEntry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: grant store is not configured")
	}
	record := &grantRecord{
		ID:           uuid.NewString(),
		ProfileID:    entry.Profile,
		HandlerGroup: strings.TrimSpace(entry.Group),
		HandlerName:  strings.TrimSpace(entry.Name),
		CreatedAt:    time.Now().UTC(),
	}
	result, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (profile_id, handler_group, handler_name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *GrantStore) DeleteGrant(ctx context.Context, entry core.PermissionEntry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: grant store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*grantRecord)(nil)).
		Where("profile_id = ?", entry.Profile).
		Where("handler_group = ?", strings.TrimSpace(entry.Group)).
		Where("handler_name = ?", strings.TrimSpace(entry.Name)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RegisterHandler adds a group/name pair to the handler catalog. Grants are
// only accepted for catalogued pairs, so deployments register their handler
// surface here before permissions can reference it.
func (s *GrantStore) RegisterHandler(ctx context.Context, entry core.CatalogEntry, description string) error {
	if s == nil || s.handlerRepo == nil {
		return fmt.Errorf("sqlstore: grant store is not configured")
	}
	group := strings.TrimSpace(entry.Group)
	name := strings.TrimSpace(entry.Name)
	if group == "" || name == "" {
		return fmt.Errorf("sqlstore: handler group and name are required")
	}
	record := &handlerRecord{
		ID:           uuid.NewString(),
		HandlerGroup: group,
		HandlerName:  name,
		Description:  strings.TrimSpace(description),
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.handlerRepo.Create(ctx, record)
	return err
}
