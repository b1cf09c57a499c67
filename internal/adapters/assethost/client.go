package assethost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/assethost"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the external asset host over its JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

type assetResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"uploadUrl,omitempty"`
	Status    string `json:"status"`
}

func (c *Client) CreateUploadSlot(ctx context.Context, meta assethost.UploadMetadata) (assethost.UploadSlot, error) {
	body, err := json.Marshal(map[string]string{"uploaderId": meta.UploaderID})
	if err != nil {
		return assethost.UploadSlot{}, fmt.Errorf("assethost: encode slot request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/assets", bytes.NewReader(body))
	if err != nil {
		return assethost.UploadSlot{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return assethost.UploadSlot{}, fmt.Errorf("assethost: create upload slot: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return assethost.UploadSlot{}, fmt.Errorf("assethost: create upload slot: unexpected status %d", resp.StatusCode)
	}

	var ar assetResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return assethost.UploadSlot{}, fmt.Errorf("assethost: decode slot response: %w", err)
	}
	return assethost.UploadSlot{
		ExternalID: domain.ExternalAssetID(ar.ID),
		UploadURL:  ar.UploadURL,
	}, nil
}

func (c *Client) IsUploadComplete(ctx context.Context, externalID domain.ExternalAssetID) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assets/"+url.PathEscape(string(externalID)), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("assethost: get asset: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return false, nil
	case http.StatusOK:
	default:
		return false, fmt.Errorf("assethost: get asset: unexpected status %d", resp.StatusCode)
	}

	var ar assetResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return false, fmt.Errorf("assethost: decode asset response: %w", err)
	}
	return ar.Status == "complete", nil
}

func (c *Client) DeleteAsset(ctx context.Context, externalID domain.ExternalAssetID) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/assets/"+url.PathEscape(string(externalID)), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("assethost: delete asset: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("assethost: delete asset: unexpected status %d", resp.StatusCode)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("assethost: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
