package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sajib9090/restaurant-management-backend/pkg/config"
)

// Asset is the handle returned by the asset store for an uploaded
// binary.
type Asset struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// DeleteResult reports the outcome of a deletion.
type DeleteResult struct {
	Result string `json:"result"`
}

// ErrNotConfigured is returned when no asset store endpoint is set.
var ErrNotConfigured = errors.New("asset store is not configured")

// Store is the asset-store collaborator: avatars and brand logos are
// uploaded as raw buffers and referenced by public id.
type Store interface {
	Upload(ctx context.Context, data []byte) (*Asset, error)
	Delete(ctx context.Context, publicID string) (*DeleteResult, error)
}

// HTTPStore talks to an asset host over HTTP.
type HTTPStore struct {
	client *resty.Client
}

// NewHTTPStore creates a store client for the configured endpoint.
func NewHTTPStore(cfg *config.AssetsConfig) *HTTPStore {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("X-Api-Key", cfg.APIKey)
	return &HTTPStore{client: client}
}

// Upload posts a binary buffer and returns the stored asset handle.
func (s *HTTPStore) Upload(ctx context.Context, data []byte) (*Asset, error) {
	var asset Asset
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", "upload", bytes.NewReader(data)).
		SetResult(&asset).
		Post("/upload")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("asset upload failed: %s", resp.Status())
	}
	if asset.PublicID == "" {
		return nil, errors.New("asset store returned no public id")
	}
	return &asset, nil
}

// Delete removes a stored asset by public id.
func (s *HTTPStore) Delete(ctx context.Context, publicID string) (*DeleteResult, error) {
	var result DeleteResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		Delete("/assets/" + publicID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("asset delete failed: %s", resp.Status())
	}
	return &result, nil
}

// Disabled is a Store that rejects every call. Used when no asset
// host is configured so avatar/logo endpoints fail cleanly.
type Disabled struct{}

// Upload always fails with ErrNotConfigured.
func (Disabled) Upload(ctx context.Context, data []byte) (*Asset, error) {
	return nil, ErrNotConfigured
}

// Delete always fails with ErrNotConfigured.
func (Disabled) Delete(ctx context.Context, publicID string) (*DeleteResult, error) {
	return nil, ErrNotConfigured
}
