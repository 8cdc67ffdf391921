// Package client is a Go client for the key store HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/example/keystore/models"
)

type KeyClient struct {
	// BaseURL includes the API prefix, e.g. http://localhost:8080/api.
	BaseURL string
	Client  *http.Client
}

func NewKeyClient(baseURL string) *KeyClient {
	return &KeyClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type CreateKeyResponse struct {
	Success   bool   `json:"success"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expiresAt"`
}

type VerifyKeyResponse struct {
	Valid    bool    `json:"valid"`
	Message  string  `json:"message,omitempty"`
	TimeLeft string  `json:"timeLeft,omitempty"`
	IP       *string `json:"ip,omitempty"`
	Note     *string `json:"note,omitempty"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// APIError is a non-200 answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("key store: status %d: %s", e.StatusCode, e.Message)
}

func (c *KeyClient) CreateKey(ctx context.Context, hours float64, ip, note string) (*CreateKeyResponse, error) {
	payload := map[string]interface{}{
		"action":   "create",
		"duration": hours,
	}
	if ip != "" {
		payload["ip"] = ip
	}
	if note != "" {
		payload["note"] = note
	}

	var resp CreateKeyResponse
	if err := c.do(ctx, http.MethodPost, nil, payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to create key")
	}
	return &resp, nil
}

func (c *KeyClient) ListKeys(ctx context.Context) ([]models.KeyRecord, error) {
	var resp struct {
		Success bool               `json:"success"`
		Keys    []models.KeyRecord `json:"keys"`
	}
	if err := c.do(ctx, http.MethodGet, url.Values{"action": {"list"}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (c *KeyClient) VerifyKey(ctx context.Context, key string) (*VerifyKeyResponse, error) {
	var resp VerifyKeyResponse
	q := url.Values{"action": {"verify"}, "key": {key}}
	if err := c.do(ctx, http.MethodGet, q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtendKey returns Success=false with a message when the key does not exist.
func (c *KeyClient) ExtendKey(ctx context.Context, key string, hours float64) (*StatusResponse, error) {
	payload := map[string]interface{}{
		"key":   key,
		"hours": hours,
	}
	var resp StatusResponse
	if err := c.do(ctx, http.MethodPut, nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *KeyClient) DeleteKey(ctx context.Context, key string) error {
	var resp StatusResponse
	return c.do(ctx, http.MethodDelete, nil, map[string]string{"key": key}, &resp)
}

func (c *KeyClient) do(ctx context.Context, method string, query url.Values, payload, out interface{}) error {
	reqURL := c.BaseURL + "/keys"
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure StatusResponse
		msg := string(bodyBytes)
		if json.Unmarshal(bodyBytes, &failure) == nil && failure.Message != "" {
			msg = failure.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
