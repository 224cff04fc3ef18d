// Package diagnostics exposes the operator-facing read/repair surface over the
// hash store. It is the safety net for the insert race the issuance path
// tolerates by design.
package diagnostics

import (
	"context"

	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

// MaxListLimit caps bulk listing.
const MaxListLimit = 100

// DuplicateReport summarizes constraint anomalies in the store.
type DuplicateReport struct {
	DuplicateHashes   []orderhash.DuplicateGroup `json:"duplicate_hashes"`
	DuplicateOrderIDs []orderhash.DuplicateGroup `json:"duplicate_order_ids"`
	TotalRecords      int64                      `json:"total_records"`
}

type Service struct {
	repo orderhash.Repository
	logg *logger.Logger
}

func NewService(repo orderhash.Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]orderhash.Record, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) DuplicateReport(ctx context.Context) (*DuplicateReport, error) {
	hashes, err := s.repo.FindDuplicateHashes(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.FindDuplicateOrderIDs(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	return &DuplicateReport{
		DuplicateHashes:   hashes,
		DuplicateOrderIDs: orders,
		TotalRecords:      total,
	}, nil
}

// CleanupDuplicates deletes all-but-the-earliest row per duplicated hash and
// returns the number of rows removed.
func (s *Service) CleanupDuplicates(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteDuplicateHashes(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "rows_removed", removed), "duplicate hashes cleaned up")
	}
	return removed, nil
}

// InitSchema idempotently creates/migrates the store.
func (s *Service) InitSchema(ctx context.Context) error {
	return s.repo.EnsureSchema(ctx)
}
