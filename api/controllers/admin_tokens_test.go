package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/diagnostics"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/types"
)

type stubDiagnostics struct {
	records     []orderhash.Record
	report      *diagnostics.DuplicateReport
	removed     int64
	err         error
	lastLimit   int
	schemaCalls int
}

func (s *stubDiagnostics) ListRecent(ctx context.Context, limit int) ([]orderhash.Record, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *stubDiagnostics) DuplicateReport(ctx context.Context) (*diagnostics.DuplicateReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubDiagnostics) CleanupDuplicates(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.removed, nil
}

func (s *stubDiagnostics) InitSchema(ctx context.Context) error {
	s.schemaCalls++
	return s.err
}

func adminLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestAdminListTokensDefaultLimit(t *testing.T) {
	svc := &stubDiagnostics{records: []orderhash.Record{{OrderID: "o1", OrderHash: "h1"}}}
	rec := httptest.NewRecorder()
	AdminListTokens(svc, adminLogger())(rec, httptest.NewRequest("GET", "/api/admin/v1/tokens", nil))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, 20, svc.lastLimit)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]any)
	assert.Equal(t, float64(1), data["count"])
}

func TestAdminListTokensRejectsBadLimit(t *testing.T) {
	svc := &stubDiagnostics{}

	rec := httptest.NewRecorder()
	AdminListTokens(svc, adminLogger())(rec, httptest.NewRequest("GET", "/api/admin/v1/tokens?limit=abc", nil))
	assert.Equal(t, 400, rec.Code)

	rec = httptest.NewRecorder()
	AdminListTokens(svc, adminLogger())(rec, httptest.NewRequest("GET", "/api/admin/v1/tokens?limit=1000", nil))
	assert.Equal(t, 400, rec.Code)
}

func TestAdminDuplicateReport(t *testing.T) {
	svc := &stubDiagnostics{report: &diagnostics.DuplicateReport{
		DuplicateHashes: []orderhash.DuplicateGroup{{Value: "h1", Count: 2}},
		TotalRecords:    9,
	}}
	rec := httptest.NewRecorder()
	AdminDuplicateReport(svc, adminLogger())(rec, httptest.NewRequest("GET", "/api/admin/v1/tokens/duplicates", nil))

	require.Equal(t, 200, rec.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]any)
	assert.Equal(t, float64(9), data["total_records"])
}

func TestAdminCleanupDuplicates(t *testing.T) {
	svc := &stubDiagnostics{removed: 3}
	rec := httptest.NewRecorder()
	AdminCleanupDuplicates(svc, adminLogger())(rec, httptest.NewRequest("DELETE", "/api/admin/v1/tokens/duplicates", nil))

	require.Equal(t, 200, rec.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]any)
	assert.Equal(t, float64(3), data["rows_removed"])
}

func TestAdminInitSchema(t *testing.T) {
	svc := &stubDiagnostics{}
	rec := httptest.NewRecorder()
	AdminInitSchema(svc, adminLogger())(rec, httptest.NewRequest("POST", "/api/admin/v1/schema/init", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, 1, svc.schemaCalls)
}

func TestAdminEndpointsStoreUnavailable(t *testing.T) {
	svc := &stubDiagnostics{err: pkgerrors.New(pkgerrors.CodeStoreUnavailable, "database not configured")}

	rec := httptest.NewRecorder()
	AdminDuplicateReport(svc, adminLogger())(rec, httptest.NewRequest("GET", "/api/admin/v1/tokens/duplicates", nil))
	assert.Equal(t, 503, rec.Code)

	rec = httptest.NewRecorder()
	AdminInitSchema(svc, adminLogger())(rec, httptest.NewRequest("POST", "/api/admin/v1/schema/init", nil))
	assert.Equal(t, 503, rec.Code)
}
