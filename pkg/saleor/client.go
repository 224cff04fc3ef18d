// Package saleor is a thin typed client for the slice of the Saleor GraphQL
// API this app touches: writing order metadata and reading order state. Every
// call carries its own API URL and token; credential lifecycle belongs to the
// APL, never to this client.
package saleor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
	pkgerrors "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/errors"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

const updateMetadataMutation = `
mutation UpdateOrderMetadata($id: ID!, $input: [MetadataInput!]!) {
  updateMetadata(id: $id, input: $input) {
    errors {
      field
      message
      code
    }
    item {
      id
    }
  }
}`

const orderStatusQuery = `
query OrderStatus($id: ID!) {
  order(id: $id) {
    status
    number
  }
}`

const orderMetadataQuery = `
query OrderMetadata($id: ID!) {
  order(id: $id) {
    status
    number
    metadata {
      key
      value
    }
  }
}`

// Client issues authenticated GraphQL calls against a Saleor instance.
type Client struct {
	httpClient *http.Client
	logg       *logger.Logger
}

func NewClient(cfg config.SaleorConfig, logg *logger.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
	}
}

// OrderStatus is the read-side summary of an order on Saleor.
type OrderStatus struct {
	Status string `json:"status"`
	Number string `json:"number"`
}

// OrderMetadata is the full metadata snapshot for an order.
type OrderMetadata struct {
	Status   string            `json:"status"`
	Number   string            `json:"number"`
	Metadata map[string]string `json:"metadata"`
}

// MutationError is a field-level error returned by a Saleor mutation.
type MutationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// UpdateOrderMetadata writes key=value into the order's metadata.
func (c *Client) UpdateOrderMetadata(ctx context.Context, apiURL, token, orderID, key, value string) error {
	variables := map[string]any{
		"id": orderID,
		"input": []map[string]string{
			{"key": key, "value": value},
		},
	}

	var payload struct {
		UpdateMetadata struct {
			Errors []MutationError `json:"errors"`
			Item   *struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"updateMetadata"`
	}
	if err := c.do(ctx, apiURL, token, updateMetadataMutation, variables, &payload); err != nil {
		return err
	}

	if len(payload.UpdateMetadata.Errors) > 0 {
		return pkgerrors.New(pkgerrors.CodeRemoteValidation, "metadata update rejected").
			WithDetails(payload.UpdateMetadata.Errors)
	}
	return nil
}

// OrderStatus fetches status and number for an order.
func (c *Client) OrderStatus(ctx context.Context, apiURL, token, orderID string) (*OrderStatus, error) {
	var payload struct {
		Order *OrderStatus `json:"order"`
	}
	if err := c.do(ctx, apiURL, token, orderStatusQuery, map[string]any{"id": orderID}, &payload); err != nil {
		return nil, err
	}
	if payload.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteNotFound, "order not found on saleor")
	}
	return payload.Order, nil
}

// OrderMetadata fetches the full metadata snapshot for an order.
func (c *Client) OrderMetadata(ctx context.Context, apiURL, token, orderID string) (*OrderMetadata, error) {
	var payload struct {
		Order *struct {
			Status   string `json:"status"`
			Number   string `json:"number"`
			Metadata []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"metadata"`
		} `json:"order"`
	}
	if err := c.do(ctx, apiURL, token, orderMetadataQuery, map[string]any{"id": orderID}, &payload); err != nil {
		return nil, err
	}
	if payload.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteNotFound, "order not found on saleor")
	}

	meta := make(map[string]string, len(payload.Order.Metadata))
	for _, entry := range payload.Order.Metadata {
		meta[entry.Key] = entry.Value
	}
	return &OrderMetadata{
		Status:   payload.Order.Status,
		Number:   payload.Order.Number,
		Metadata: meta,
	}, nil
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Exception struct {
			Code string `json:"code"`
		} `json:"exception"`
	} `json:"extensions"`
}

func (c *Client) do(ctx context.Context, apiURL, token, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnreachable, err, "build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnreachable, err, "call saleor api")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeRemoteAuthRejected, fmt.Sprintf("saleor returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return pkgerrors.New(pkgerrors.CodeRemoteUnreachable, fmt.Sprintf("saleor returned %d", resp.StatusCode))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnreachable, err, "decode saleor response")
	}

	if len(envelope.Errors) > 0 {
		if isAuthError(envelope.Errors) {
			return pkgerrors.New(pkgerrors.CodeRemoteAuthRejected, envelope.Errors[0].Message)
		}
		return pkgerrors.New(pkgerrors.CodeRemoteValidation, envelope.Errors[0].Message).
			WithDetails(envelope.Errors)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeRemoteUnreachable, err, "decode saleor data")
		}
	}
	return nil
}

func isAuthError(errs []graphqlError) bool {
	for _, e := range errs {
		switch e.Extensions.Exception.Code {
		case "InvalidTokenError", "ExpiredSignatureError", "PermissionDenied":
			return true
		}
		if strings.Contains(strings.ToLower(e.Message), "permission") {
			return true
		}
	}
	return false
}
