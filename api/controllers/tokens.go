package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/responses"
	"github.com/OpenAegis/saleor-app-order-hash-generator/api/validators"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/lookup"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

// LookupService resolves order hashes back to orders.
type LookupService interface {
	Resolve(ctx context.Context, hash string) (*lookup.Resolution, error)
	ResolveWithStatus(ctx context.Context, hash string) (*lookup.StatusResolution, error)
	ResolveWithMetadata(ctx context.Context, hash string) (*lookup.MetadataResolution, error)
}

// TokenResolve maps a hash to its order. With ?status=true the response also
// carries live order state fetched from the owning Saleor instance.
func TokenResolve(svc LookupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hash := strings.TrimSpace(chi.URLParam(r, "token"))
		if hash == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		if validators.ParseQueryBool(r, "status") {
			resolution, err := svc.ResolveWithStatus(ctx, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, resolution)
			return
		}

		resolution, err := svc.Resolve(ctx, hash)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolution)
	}
}

// TokenMetadata returns the order's full metadata snapshot from Saleor.
func TokenMetadata(svc LookupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hash := strings.TrimSpace(chi.URLParam(r, "token"))
		if hash == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		resolution, err := svc.ResolveWithMetadata(ctx, hash)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolution)
	}
}
