package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/apl"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/saleor"
)

// OrderReader is the read side of the Saleor client.
type OrderReader interface {
	OrderStatus(ctx context.Context, apiURL, token, orderID string) (*saleor.OrderStatus, error)
	OrderMetadata(ctx context.Context, apiURL, token, orderID string) (*saleor.OrderMetadata, error)
}

// Resolution maps a hash back to its order.
type Resolution struct {
	OrderID      string    `json:"order_id"`
	SaleorAPIURL string    `json:"saleor_api_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// StatusResolution additionally carries live order state from Saleor.
type StatusResolution struct {
	Resolution
	Status      string `json:"status"`
	OrderNumber string `json:"order_number"`
}

// MetadataResolution carries the full metadata snapshot from Saleor.
type MetadataResolution struct {
	Resolution
	Status      string            `json:"status"`
	OrderNumber string            `json:"order_number"`
	Metadata    map[string]string `json:"metadata"`
}

type ServiceParams struct {
	Repo   orderhash.Repository
	APL    apl.APL
	Saleor OrderReader
	Logger *logger.Logger
}

// Service is the read path: hash to order, optionally enriched with live data
// from the order's Saleor instance. Every error kind stays distinct so callers
// can tell an unknown hash from a vanished order from a missing credential.
type Service struct {
	repo   orderhash.Repository
	apl    apl.APL
	saleor OrderReader
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record repo required")
	}
	if params.APL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "apl required")
	}
	if params.Saleor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "saleor client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:   params.Repo,
		apl:    params.APL,
		saleor: params.Saleor,
		logg:   params.Logger,
	}, nil
}

func (s *Service) Resolve(ctx context.Context, hash string) (*Resolution, error) {
	record, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		OrderID:      record.OrderID,
		SaleorAPIURL: record.SaleorAPIURL,
		CreatedAt:    record.CreatedAt,
	}, nil
}

func (s *Service) ResolveWithStatus(ctx context.Context, hash string) (*StatusResolution, error) {
	resolution, err := s.Resolve(ctx, hash)
	if err != nil {
		return nil, err
	}
	auth, err := s.credential(ctx, resolution.SaleorAPIURL)
	if err != nil {
		return nil, err
	}
	status, err := s.saleor.OrderStatus(ctx, resolution.SaleorAPIURL, auth.Token, resolution.OrderID)
	if err != nil {
		return nil, err
	}
	return &StatusResolution{
		Resolution:  *resolution,
		Status:      status.Status,
		OrderNumber: status.Number,
	}, nil
}

func (s *Service) ResolveWithMetadata(ctx context.Context, hash string) (*MetadataResolution, error) {
	resolution, err := s.Resolve(ctx, hash)
	if err != nil {
		return nil, err
	}
	auth, err := s.credential(ctx, resolution.SaleorAPIURL)
	if err != nil {
		return nil, err
	}
	meta, err := s.saleor.OrderMetadata(ctx, resolution.SaleorAPIURL, auth.Token, resolution.OrderID)
	if err != nil {
		return nil, err
	}
	return &MetadataResolution{
		Resolution:  *resolution,
		Status:      meta.Status,
		OrderNumber: meta.Number,
		Metadata:    meta.Metadata,
	}, nil
}

func (s *Service) credential(ctx context.Context, apiURL string) (*apl.AuthData, error) {
	auth, err := s.apl.Get(ctx, apiURL)
	if errors.Is(err, apl.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCredentialUnavailable, err, "no credential for saleor instance")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCredentialUnavailable, err, "credential lookup failed")
	}
	return auth, nil
}
