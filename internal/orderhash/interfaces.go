package orderhash

import "context"

// Repository defines persistence operations for order hash records. Uniqueness
// of both order_id and order_hash is enforced by the store's constraints, not
// by callers; Insert surfaces violations as typed CONFLICT / TOKEN_CONFLICT
// errors. Every operation reports STORE_UNAVAILABLE when the backing database
// is missing or unreachable.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, record *Record) (*Record, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	FindByHash(ctx context.Context, hash string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	CountAll(ctx context.Context) (int64, error)
	FindDuplicateHashes(ctx context.Context) ([]DuplicateGroup, error)
	FindDuplicateOrderIDs(ctx context.Context) ([]DuplicateGroup, error)
	DeleteDuplicateHashes(ctx context.Context) (int64, error)
}
