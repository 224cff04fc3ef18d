package saleor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(config.SaleorConfig{RequestTimeout: 2 * time.Second}, nil)
}

func TestUpdateOrderMetadataSendsMutation(t *testing.T) {
	var captured struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"updateMetadata":{"errors":[],"item":{"id":"T3JkZXI6MQ=="}}}}`))
	}))
	defer srv.Close()

	err := newTestClient().UpdateOrderMetadata(context.Background(), srv.URL, "app-token", "T3JkZXI6MQ==", "order_hash", "abc123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer app-token", authHeader)
	assert.Contains(t, captured.Query, "updateMetadata")
	assert.Equal(t, "T3JkZXI6MQ==", captured.Variables["id"])
}

func TestUpdateOrderMetadataSurfacesMutationErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"updateMetadata":{"errors":[{"field":"id","message":"Couldn't resolve id","code":"NOT_FOUND"}]}}}`))
	}))
	defer srv.Close()

	err := newTestClient().UpdateOrderMetadata(context.Background(), srv.URL, "t", "bogus", "order_hash", "abc")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteValidation))
}

func TestDoMapsAuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient().OrderStatus(context.Background(), srv.URL, "expired", "T3JkZXI6MQ==")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteAuthRejected))
}

func TestDoMapsGraphQLAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"token invalid","extensions":{"exception":{"code":"InvalidTokenError"}}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient().OrderStatus(context.Background(), srv.URL, "bad", "T3JkZXI6MQ==")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteAuthRejected))
}

func TestDoMapsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	err := newTestClient().UpdateOrderMetadata(context.Background(), srv.URL, "t", "id", "k", "v")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteUnreachable))
}

func TestOrderStatusReturnsRemoteNotFoundForNullOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"order":null}}`))
	}))
	defer srv.Close()

	_, err := newTestClient().OrderStatus(context.Background(), srv.URL, "t", "gone")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteNotFound))
}

func TestOrderMetadataFlattensEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"order":{"status":"UNFULFILLED","number":"42","metadata":[{"key":"order_hash","value":"abc"},{"key":"source","value":"web"}]}}}`))
	}))
	defer srv.Close()

	meta, err := newTestClient().OrderMetadata(context.Background(), srv.URL, "t", "T3JkZXI6NDI=")
	require.NoError(t, err)

	assert.Equal(t, "UNFULFILLED", meta.Status)
	assert.Equal(t, "42", meta.Number)
	assert.Equal(t, "abc", meta.Metadata["order_hash"])
	assert.Equal(t, "web", meta.Metadata["source"])
}
