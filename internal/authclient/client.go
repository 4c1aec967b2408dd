package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mpatel/shopline-backend/pkg/logger"
)

// Identity is the resolved owner of a token, as reported by the user
// service.
type Identity struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Client resolves bearer tokens against the user service. One request
// per validation; there is no caching or retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the user service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Validate resolves a token to its identity. A token the user service
// does not recognize (unknown, expired or revoked) yields (nil, nil).
// Errors are reserved for transport failures and unexpected statuses.
func (c *Client) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/api/v1/users/validate/%s", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Token validation request failed", err, map[string]interface{}{
			"user_service": c.baseURL,
		})
		return nil, fmt.Errorf("failed to call user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Unexpected status from user service", map[string]interface{}{
			"status_code": resp.StatusCode,
		})
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read validation response: %w", err)
	}
	if len(body) == 0 {
		// The user service answers an invalid token with an empty body.
		return nil, nil
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation response: %w", err)
	}

	return &identity, nil
}
