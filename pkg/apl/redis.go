package apl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pkgredis "github.com/OpenAegis/saleor-app-order-hash-generator/pkg/redis"
)

// RedisAPL stores credentials in Redis, one JSON value per Saleor instance.
// This is the backend for multi-tenant deployments.
type RedisAPL struct {
	client *pkgredis.Client
}

func NewRedisAPL(client *pkgredis.Client) (*RedisAPL, error) {
	if client == nil {
		return nil, fmt.Errorf("apl: redis client is required")
	}
	return &RedisAPL{client: client}, nil
}

func (r *RedisAPL) Get(ctx context.Context, saleorAPIURL string) (*AuthData, error) {
	raw, err := r.client.Get(ctx, key(saleorAPIURL))
	if errors.Is(err, pkgredis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apl: redis get: %w", err)
	}
	var data AuthData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("apl: decode auth data: %w", err)
	}
	return &data, nil
}

// Set writes or replaces the entry for an API URL.
func (r *RedisAPL) Set(ctx context.Context, data AuthData) error {
	if data.SaleorAPIURL == "" {
		return fmt.Errorf("apl: saleor_api_url is required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("apl: encode auth data: %w", err)
	}
	if err := r.client.Set(ctx, key(data.SaleorAPIURL), raw, 0); err != nil {
		return fmt.Errorf("apl: redis set: %w", err)
	}
	return nil
}

func key(saleorAPIURL string) string {
	return pkgredis.Key("apl", saleorAPIURL)
}
