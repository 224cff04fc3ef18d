package issuance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/apl"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/metrics"
)

// maxMintAttempts bounds the collision-retry loop.
const maxMintAttempts = 10

// HashSource mints candidate hashes.
type HashSource interface {
	Generate() string
}

// MetadataWriter pushes the minted hash into the order's metadata upstream.
type MetadataWriter interface {
	UpdateOrderMetadata(ctx context.Context, apiURL, token, orderID, key, value string) error
}

// Event is one order-created delivery. Deliveries are at-least-once and may be
// concurrent; the store's uniqueness constraints are the only dedupe mechanism.
type Event struct {
	OrderID      string
	SaleorAPIURL string
	UserEmail    string
}

// Outcome records what each stage of a run did. It exists for logs, metrics
// and tests; the acknowledgement to the dispatcher depends only on validation.
type Outcome struct {
	OrderID       string
	Hash          string
	Attempts      int
	HashExhausted bool
	Persisted     bool
	PersistErr    error
	Reconciled    bool
	ReconcileErr  error
}

type ServiceParams struct {
	Repo        orderhash.Repository
	Hashes      HashSource
	Saleor      MetadataWriter
	APL         apl.APL
	MetadataKey string
	Logger      *logger.Logger
	Metrics     *metrics.IssuanceMetrics
}

// Service runs the order-created workflow: mint, persist, reconcile.
type Service struct {
	repo        orderhash.Repository
	hashes      HashSource
	saleor      MetadataWriter
	apl         apl.APL
	metadataKey string
	logg        *logger.Logger
	metrics     *metrics.IssuanceMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record repo required")
	}
	if params.Hashes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "hash source required")
	}
	if params.Saleor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "saleor client required")
	}
	if params.APL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "apl required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	key := params.MetadataKey
	if key == "" {
		key = "order_hash"
	}
	return &Service{
		repo:        params.Repo,
		hashes:      params.Hashes,
		saleor:      params.Saleor,
		apl:         params.APL,
		metadataKey: key,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// HandleOrderCreated processes one delivery. It returns an error only when the
// payload fails validation; every later failure is recorded in the Outcome and
// logged, never propagated, so the dispatcher's at-least-once redelivery can't
// storm on a single bad order.
func (s *Service) HandleOrderCreated(ctx context.Context, event Event) (*Outcome, error) {
	start := time.Now()

	if strings.TrimSpace(event.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id missing from payload")
	}

	ctx = s.logg.WithOrderID(ctx, event.OrderID)
	ctx = s.logg.WithSaleorAPIURL(ctx, event.SaleorAPIURL)
	if event.UserEmail != "" {
		s.logg.Info(s.logg.WithField(ctx, "user_email", event.UserEmail), "order created")
	}

	outcome := &Outcome{OrderID: event.OrderID}
	s.mint(ctx, outcome)
	s.persist(ctx, event, outcome)
	s.reconcile(ctx, event, outcome)

	result := "ok"
	if !outcome.Persisted || !outcome.Reconciled {
		result = "degraded"
	}
	s.metrics.ObserveDuration(result, time.Since(start))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"attempts":   outcome.Attempts,
		"persisted":  outcome.Persisted,
		"reconciled": outcome.Reconciled,
	}), "issuance completed")

	return outcome, nil
}

// mint generates a candidate hash, retrying on collisions up to
// maxMintAttempts. The existence pre-check is advisory: a store error or an
// exhausted bound still yields a candidate, and the insert constraint stays
// the real uniqueness mechanism.
func (s *Service) mint(ctx context.Context, outcome *Outcome) {
	accepted := false
	for attempt := 1; attempt <= maxMintAttempts; attempt++ {
		outcome.Attempts = attempt
		outcome.Hash = s.hashes.Generate()

		exists, err := s.repo.ExistsByHash(ctx, outcome.Hash)
		if err != nil {
			s.logg.Warn(ctx, "hash pre-check unavailable, accepting candidate")
			accepted = true
			break
		}
		if !exists {
			accepted = true
			break
		}
		s.metrics.IncStage("mint", "collision")
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "hash collision, regenerating")
	}

	if !accepted {
		outcome.HashExhausted = true
		s.metrics.IncStage("mint", "exhausted")
		s.logg.Error(ctx, "hash collision retries exhausted, continuing with last candidate", nil)
		return
	}
	s.metrics.IncStage("mint", "ok")
}

// persist stores the record. Constraint violations are expected here: a
// redelivered event trips the order_id constraint, a lost pre-check race trips
// the hash constraint. Neither blocks reconciliation.
func (s *Service) persist(ctx context.Context, event Event, outcome *Outcome) {
	_, err := s.repo.Insert(ctx, &orderhash.Record{
		OrderID:      event.OrderID,
		OrderHash:    outcome.Hash,
		SaleorAPIURL: event.SaleorAPIURL,
	})
	if err != nil {
		outcome.PersistErr = err
		s.metrics.IncStage("persist", "failed")
		s.logg.Error(ctx, "persist order hash failed", err)
		return
	}
	outcome.Persisted = true
	s.metrics.IncStage("persist", "ok")
}

func (s *Service) reconcile(ctx context.Context, event Event, outcome *Outcome) {
	auth, err := s.apl.Get(ctx, event.SaleorAPIURL)
	if err != nil {
		if errors.Is(err, apl.ErrNotFound) {
			err = pkgerrors.Wrap(pkgerrors.CodeCredentialUnavailable, err, "no credential for saleor instance")
		}
		outcome.ReconcileErr = err
		s.metrics.IncStage("reconcile", "no_credential")
		s.logg.Error(ctx, "reconcile skipped, credential unavailable", err)
		return
	}

	err = s.saleor.UpdateOrderMetadata(ctx, event.SaleorAPIURL, auth.Token, event.OrderID, s.metadataKey, outcome.Hash)
	if err != nil {
		outcome.ReconcileErr = err
		s.metrics.IncStage("reconcile", "failed")
		s.logg.Error(ctx, "push order hash to saleor failed", err)
		return
	}
	outcome.Reconciled = true
	s.metrics.IncStage("reconcile", "ok")
}
