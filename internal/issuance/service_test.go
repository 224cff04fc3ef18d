package issuance

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/apl"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	byHash    map[string]*orderhash.Record
	byOrder   map[string]*orderhash.Record
	existsFn  func(hash string) (bool, error)
	insertErr error
	inserts   []orderhash.Record
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byHash:  map[string]*orderhash.Record{},
		byOrder: map[string]*orderhash.Record{},
	}
}

func (s *stubRepo) EnsureSchema(ctx context.Context) error { return nil }

func (s *stubRepo) Insert(ctx context.Context, record *orderhash.Record) (*orderhash.Record, error) {
	s.inserts = append(s.inserts, *record)
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if _, ok := s.byOrder[record.OrderID]; ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a hash")
	}
	if _, ok := s.byHash[record.OrderHash]; ok {
		return nil, pkgerrors.New(pkgerrors.CodeTokenConflict, "hash already bound to another order")
	}
	record.ID = int64(len(s.inserts))
	s.byOrder[record.OrderID] = record
	s.byHash[record.OrderHash] = record
	return record, nil
}

func (s *stubRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(hash)
	}
	_, ok := s.byHash[hash]
	return ok, nil
}

func (s *stubRepo) FindByHash(ctx context.Context, hash string) (*orderhash.Record, error) {
	if rec, ok := s.byHash[hash]; ok {
		return rec, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown hash")
}

func (s *stubRepo) ListRecent(ctx context.Context, limit int) ([]orderhash.Record, error) {
	panic("not implemented")
}

func (s *stubRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(s.byHash)), nil
}

func (s *stubRepo) FindDuplicateHashes(ctx context.Context) ([]orderhash.DuplicateGroup, error) {
	panic("not implemented")
}

func (s *stubRepo) FindDuplicateOrderIDs(ctx context.Context) ([]orderhash.DuplicateGroup, error) {
	groups := map[string]int64{}
	for _, rec := range s.inserts {
		groups[rec.OrderID]++
	}
	var out []orderhash.DuplicateGroup
	for id, n := range groups {
		if n > 1 {
			out = append(out, orderhash.DuplicateGroup{Value: id, Count: n})
		}
	}
	return out, nil
}

func (s *stubRepo) DeleteDuplicateHashes(ctx context.Context) (int64, error) {
	panic("not implemented")
}

type queueHasher struct {
	values []string
	calls  int
}

func (q *queueHasher) Generate() string {
	q.calls++
	if len(q.values) == 0 {
		return fmt.Sprintf("generated-%d", q.calls)
	}
	v := q.values[0]
	if len(q.values) > 1 {
		q.values = q.values[1:]
	}
	return v
}

type metadataCall struct {
	apiURL, token, orderID, key, value string
}

type stubWriter struct {
	calls []metadataCall
	err   error
}

func (w *stubWriter) UpdateOrderMetadata(ctx context.Context, apiURL, token, orderID, key, value string) error {
	w.calls = append(w.calls, metadataCall{apiURL, token, orderID, key, value})
	return w.err
}

type stubAPL struct {
	entries map[string]*apl.AuthData
}

func (s *stubAPL) Get(ctx context.Context, saleorAPIURL string) (*apl.AuthData, error) {
	if data, ok := s.entries[saleorAPIURL]; ok {
		return data, nil
	}
	return nil, apl.ErrNotFound
}

const testAPIURL = "https://shop.example/graphql/"

func newTestService(t *testing.T, repo orderhash.Repository, hasher HashSource, writer MetadataWriter, creds *stubAPL) *Service {
	t.Helper()

	if creds == nil {
		creds = &stubAPL{entries: map[string]*apl.AuthData{
			testAPIURL: {SaleorAPIURL: testAPIURL, Token: "app-token"},
		}}
	}
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Hashes: hasher,
		Saleor: writer,
		APL:    creds,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func TestHandleOrderCreatedHappyPath(t *testing.T) {
	repo := newStubRepo()
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{
		OrderID:      "T3JkZXI6MQ==",
		SaleorAPIURL: testAPIURL,
	})
	require.NoError(t, err)

	assert.True(t, outcome.Persisted)
	assert.True(t, outcome.Reconciled)
	assert.Equal(t, 1, outcome.Attempts)
	require.Len(t, repo.inserts, 1)
	assert.Equal(t, "T3JkZXI6MQ==", repo.inserts[0].OrderID)
	assert.Equal(t, testAPIURL, repo.inserts[0].SaleorAPIURL)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, outcome.Hash, writer.calls[0].value)
	assert.Equal(t, "order_hash", writer.calls[0].key)
	assert.Equal(t, "app-token", writer.calls[0].token)
}

func TestHandleOrderCreatedRejectsMissingOrderID(t *testing.T) {
	repo := newStubRepo()
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	_, err := svc.HandleOrderCreated(context.Background(), Event{SaleorAPIURL: testAPIURL})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// terminal before any side effect
	assert.Empty(t, repo.inserts)
	assert.Empty(t, writer.calls)
}

func TestHandleOrderCreatedRetriesOnCollision(t *testing.T) {
	repo := newStubRepo()
	repo.byHash["taken"] = &orderhash.Record{OrderID: "other", OrderHash: "taken"}

	hasher := &queueHasher{values: []string{"taken", "taken", "fresh"}}
	writer := &stubWriter{}
	svc := newTestService(t, repo, hasher, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, "fresh", outcome.Hash)
	assert.False(t, outcome.HashExhausted)
	assert.True(t, outcome.Persisted)
}

func TestHandleOrderCreatedExhaustsCollisionBound(t *testing.T) {
	repo := newStubRepo()
	repo.existsFn = func(string) (bool, error) { return true, nil }

	hasher := &queueHasher{values: []string{"stuck"}}
	writer := &stubWriter{}
	svc := newTestService(t, repo, hasher, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.Equal(t, 10, outcome.Attempts)
	assert.True(t, outcome.HashExhausted)
	// degraded success: the run still persists and reconciles the candidate
	require.Len(t, repo.inserts, 1)
	require.Len(t, writer.calls, 1)
	assert.Equal(t, "stuck", writer.calls[0].value)
}

func TestHandleOrderCreatedContinuesWhenPreCheckUnavailable(t *testing.T) {
	repo := newStubRepo()
	repo.existsFn = func(string) (bool, error) {
		return false, pkgerrors.New(pkgerrors.CodeStoreUnavailable, "database not configured")
	}
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Attempts)
	assert.NotEmpty(t, outcome.Hash)
	require.Len(t, writer.calls, 1)
}

func TestHandleOrderCreatedPersistFailureStillReconciles(t *testing.T) {
	repo := newStubRepo()
	repo.insertErr = pkgerrors.New(pkgerrors.CodeStoreUnavailable, "connection refused")
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.False(t, outcome.Persisted)
	assert.True(t, pkgerrors.HasCode(outcome.PersistErr, pkgerrors.CodeStoreUnavailable))
	require.Len(t, writer.calls, 1)
	assert.Equal(t, outcome.Hash, writer.calls[0].value)
}

func TestHandleOrderCreatedRedelivery(t *testing.T) {
	repo := newStubRepo()
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	event := Event{OrderID: "O1", SaleorAPIURL: testAPIURL}

	first, err := svc.HandleOrderCreated(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, first.Persisted)

	second, err := svc.HandleOrderCreated(context.Background(), event)
	require.NoError(t, err) // both deliveries acknowledged
	assert.False(t, second.Persisted)
	assert.True(t, pkgerrors.HasCode(second.PersistErr, pkgerrors.CodeConflict))
	assert.NotEqual(t, first.Hash, second.Hash)

	// only one record for the order, but the dup shows up in diagnostics
	count, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	dups, err := repo.FindDuplicateOrderIDs(context.Background())
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, int64(2), dups[0].Count)

	// the orphaned second hash was still pushed upstream
	require.Len(t, writer.calls, 2)
	assert.Equal(t, second.Hash, writer.calls[1].value)
}

func TestHandleOrderCreatedMissingCredential(t *testing.T) {
	repo := newStubRepo()
	writer := &stubWriter{}
	svc := newTestService(t, repo, &queueHasher{}, writer, &stubAPL{entries: map[string]*apl.AuthData{}})

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.True(t, outcome.Persisted)
	assert.False(t, outcome.Reconciled)
	assert.True(t, pkgerrors.HasCode(outcome.ReconcileErr, pkgerrors.CodeCredentialUnavailable))
	assert.Empty(t, writer.calls)
}

func TestHandleOrderCreatedRemoteFailureNotEscalated(t *testing.T) {
	repo := newStubRepo()
	writer := &stubWriter{err: pkgerrors.New(pkgerrors.CodeRemoteUnreachable, "saleor down")}
	svc := newTestService(t, repo, &queueHasher{}, writer, nil)

	outcome, err := svc.HandleOrderCreated(context.Background(), Event{OrderID: "O1", SaleorAPIURL: testAPIURL})
	require.NoError(t, err)

	assert.True(t, outcome.Persisted)
	assert.False(t, outcome.Reconciled)
	assert.True(t, pkgerrors.HasCode(outcome.ReconcileErr, pkgerrors.CodeRemoteUnreachable))
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
