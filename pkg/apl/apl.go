// Package apl holds the auth persistence layer: per-Saleor-instance app
// credentials keyed by the instance's API URL. The webhook registration
// handshake that writes these entries lives outside this app; issuance and
// lookup only ever read them.
package apl

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no credential is on file for an API URL.
var ErrNotFound = errors.New("apl: auth data not found")

// AuthData is the credential material for one Saleor instance.
type AuthData struct {
	SaleorAPIURL string `json:"saleor_api_url"`
	Token        string `json:"token"`
	AppID        string `json:"app_id,omitempty"`
}

// APL resolves the credential for a Saleor instance.
type APL interface {
	Get(ctx context.Context, saleorAPIURL string) (*AuthData, error)
}
