package apl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileAPL reads credentials from a JSON file mapping saleor_api_url to auth
// data. The file is re-read on every Get so external registration tooling can
// rotate entries without a restart.
type FileAPL struct {
	path string
}

func NewFileAPL(path string) *FileAPL {
	if path == "" {
		path = ".auth-data.json"
	}
	return &FileAPL{path: path}
}

func (f *FileAPL) Get(ctx context.Context, saleorAPIURL string) (*AuthData, error) {
	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	data, ok := entries[saleorAPIURL]
	if !ok {
		return nil, ErrNotFound
	}
	if data.SaleorAPIURL == "" {
		data.SaleorAPIURL = saleorAPIURL
	}
	return &data, nil
}

// Set writes or replaces the entry for an API URL. Used by tests and by
// operator tooling seeding credentials by hand.
func (f *FileAPL) Set(ctx context.Context, data AuthData) error {
	if data.SaleorAPIURL == "" {
		return fmt.Errorf("apl: saleor_api_url is required")
	}
	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[data.SaleorAPIURL] = data

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("apl: encode auth data: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("apl: write %q: %w", f.path, err)
	}
	return nil
}

func (f *FileAPL) load() (map[string]AuthData, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]AuthData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apl: read %q: %w", f.path, err)
	}
	entries := map[string]AuthData{}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("apl: decode %q: %w", f.path, err)
	}
	return entries, nil
}
