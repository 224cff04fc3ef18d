package orderhash

import (
	"context"
	"errors"

	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/db"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order hash repository bound to the provided DB.
// A nil DB is allowed: every operation then reports STORE_UNAVAILABLE, which
// keeps the app bootable without database configuration.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) guard() error {
	if r.db == nil {
		return pkgerrors.New(pkgerrors.CodeStoreUnavailable, "database not configured")
	}
	return nil
}

// EnsureSchema idempotently creates the order_hashes table and adds columns
// introduced after the table first shipped (saleor_api_url). Existing rows are
// never touched.
func (r *repository) EnsureSchema(ctx context.Context) error {
	if err := r.guard(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "ensure order_hashes schema")
	}
	return nil
}

func (r *repository) Insert(ctx context.Context, record *Record) (*Record, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		// order_id must be checked first: every constraint and message for this
		// table also contains the substring "order_hash" via the table name.
		if db.IsUniqueViolation(err, "order_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already has a hash")
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenConflict, err, "hash already bound to another order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "insert order hash")
	}
	return record, nil
}

func (r *repository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	if err := r.guard(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("order_hash = ?", hash).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "check hash existence")
	}
	return count > 0, nil
}

func (r *repository) FindByHash(ctx context.Context, hash string) (*Record, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	var record Record
	err := r.db.WithContext(ctx).
		Where("order_hash = ?", hash).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown hash")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "find by hash")
	}
	return &record, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	var records []Record
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "list recent records")
	}
	return records, nil
}

func (r *repository) CountAll(ctx context.Context) (int64, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&Record{}).Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "count records")
	}
	return count, nil
}

func (r *repository) FindDuplicateHashes(ctx context.Context) ([]DuplicateGroup, error) {
	return r.findDuplicates(ctx, "order_hash")
}

func (r *repository) FindDuplicateOrderIDs(ctx context.Context) ([]DuplicateGroup, error) {
	return r.findDuplicates(ctx, "order_id")
}

func (r *repository) findDuplicates(ctx context.Context, column string) ([]DuplicateGroup, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	var groups []DuplicateGroup
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Select(column+" AS value, COUNT(*) AS count").
		Group(column).
		Having("COUNT(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "find duplicate "+column)
	}
	return groups, nil
}

// DeleteDuplicateHashes keeps the earliest-inserted row (lowest id) per
// duplicated hash and deletes the rest. Hashes with a single row are untouched.
func (r *repository) DeleteDuplicateHashes(ctx context.Context) (int64, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM order_hashes
		 WHERE id NOT IN (
		   SELECT MIN(id) FROM order_hashes GROUP BY order_hash
		 )`)
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, result.Error, "delete duplicate hashes")
	}
	return result.RowsAffected, nil
}
