package controllers

import (
	"context"
	"net/http"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/responses"
	"github.com/OpenAegis/saleor-app-order-hash-generator/api/validators"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/diagnostics"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

// DiagnosticsService is the operator surface over the hash store.
type DiagnosticsService interface {
	ListRecent(ctx context.Context, limit int) ([]orderhash.Record, error)
	DuplicateReport(ctx context.Context) (*diagnostics.DuplicateReport, error)
	CleanupDuplicates(ctx context.Context) (int64, error)
	InitSchema(ctx context.Context) error
}

func AdminListTokens(svc DiagnosticsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, diagnostics.MaxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListRecent(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"tokens": records,
			"count":  len(records),
		})
	}
}

func AdminDuplicateReport(svc DiagnosticsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		report, err := svc.DuplicateReport(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func AdminCleanupDuplicates(svc DiagnosticsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		removed, err := svc.CleanupDuplicates(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"rows_removed": removed})
	}
}

func AdminInitSchema(svc DiagnosticsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.InitSchema(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"schema": "ready"})
	}
}
