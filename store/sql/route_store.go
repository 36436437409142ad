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

// RouteStore reads and seeds the transaction code mapping. The hot path is
// QueryRoutes, a single ordered scan consumed wholesale by the route table.
type RouteStore struct {
	db   *bun.DB
	repo repository.Repository[*routeRecord]
}

func NewRouteStore(db *bun.DB) (*RouteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*routeRecord](db, routeHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid route repository wiring: %w", err)
		}
	}
	return &RouteStore{db: db, repo: repo}, nil
}

func (s *RouteStore) QueryRoutes(ctx context.Context) ([]core.TransactionRoute, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: route store is not configured")
	}
	var records []routeRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("tx_code ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	routes := make([]core.TransactionRoute, 0, len(records))
	for _, record := range records {
		routes = append(routes, core.TransactionRoute{
			Code:  record.TxCode,
			Group: strings.TrimSpace(record.HandlerGroup),
			Name:  strings.TrimSpace(record.HandlerName),
		})
	}
	return routes, nil
}

// CreateRoute registers a transaction code mapping. Codes are unique; the
// insert fails on a duplicate code rather than silently replacing it.
func (s *RouteStore) CreateRoute(ctx context.Context, route core.TransactionRoute, description string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: route store is not configured")
	}
	if route.Code <= 0 {
		return fmt.Errorf("sqlstore: transaction code is required")
	}
	if err := route.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	record := &routeRecord{
		ID:           uuid.NewString(),
		TxCode:       route.Code,
		HandlerGroup: strings.TrimSpace(route.Group),
		HandlerName:  strings.TrimSpace(route.Name),
		Description:  strings.TrimSpace(description),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// DeleteRoute removes a transaction code mapping, reporting whether a row was
// deleted.
func (s *RouteStore) DeleteRoute(ctx context.Context, code int) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: route store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*routeRecord)(nil)).
		Where("tx_code = ?", code).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
