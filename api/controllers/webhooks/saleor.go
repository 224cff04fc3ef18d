package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/responses"
	"github.com/OpenAegis/saleor-app-order-hash-generator/api/validators"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/issuance"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

const (
	saleorAPIURLHeader = "Saleor-Api-Url"
	saleorEventHeader  = "Saleor-Event"
)

// IssuanceService runs the order-created workflow.
type IssuanceService interface {
	HandleOrderCreated(ctx context.Context, event issuance.Event) (*issuance.Outcome, error)
}

type orderCreatedPayload struct {
	Order *struct {
		ID        string `json:"id"`
		Number    string `json:"number"`
		UserEmail string `json:"userEmail"`
	} `json:"order"`
}

// OrderCreated accepts Saleor's ORDER_CREATED delivery. Only a missing order
// id produces a non-2xx response; downstream store or Saleor failures are
// acknowledged anyway so the dispatcher does not redeliver a payload that will
// fail the same way forever.
func OrderCreated(svc IssuanceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issuance service unavailable"))
			return
		}

		apiURL := strings.TrimSpace(r.Header.Get(saleorAPIURLHeader))
		if apiURL == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "saleor-api-url header missing"))
			return
		}

		var payload orderCreatedPayload
		if err := validators.DecodeWebhookBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if payload.Order == nil || strings.TrimSpace(payload.Order.ID) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id missing from payload"))
			return
		}

		outcome, err := svc.HandleOrderCreated(ctx, issuance.Event{
			OrderID:      payload.Order.ID,
			SaleorAPIURL: apiURL,
			UserEmail:    payload.Order.UserEmail,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_id":   outcome.OrderID,
			"persisted":  outcome.Persisted,
			"reconciled": outcome.Reconciled,
		})
	}
}
