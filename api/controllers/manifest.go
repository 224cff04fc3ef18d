package controllers

import (
	"fmt"
	"net/http"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/responses"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
)

const orderCreatedSubscription = `
subscription OrderCreated {
  event {
    ... on OrderCreated {
      order {
        id
        number
        userEmail
      }
    }
  }
}`

// Manifest is the app descriptor Saleor fetches before installation.
type Manifest struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	AppURL         string            `json:"appUrl"`
	TokenTargetURL string            `json:"tokenTargetUrl"`
	Permissions    []string          `json:"permissions"`
	Webhooks       []WebhookManifest `json:"webhooks"`
	Extensions     []any             `json:"extensions"`
}

type WebhookManifest struct {
	Name        string   `json:"name"`
	TargetURL   string   `json:"targetUrl"`
	AsyncEvents []string `json:"asyncEvents"`
	Query       string   `json:"query"`
	IsActive    bool     `json:"isActive"`
}

// AppManifest serves the manifest with URLs derived from the request, so the
// same binary works behind any hostname or reverse proxy.
func AppManifest(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := baseURL(r)
		manifest := Manifest{
			ID:             cfg.Saleor.AppID,
			Name:           cfg.Saleor.AppName,
			Version:        cfg.Saleor.AppVersion,
			AppURL:         base + "/app",
			TokenTargetURL: base + "/api/register",
			Permissions:    []string{"MANAGE_ORDERS"},
			Webhooks: []WebhookManifest{
				{
					Name:        "Order Created",
					TargetURL:   base + "/api/webhooks/order-created",
					AsyncEvents: []string{"ORDER_CREATED"},
					Query:       orderCreatedSubscription,
					IsActive:    true,
				},
			},
			Extensions: []any{},
		}
		responses.WriteSuccess(w, manifest)
	}
}

func baseURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}
