package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brokerdesk/admin-api/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionInvalid indicates the trading backend rejected our credential.
// Callers surface this as a "please log in again" condition, no retry.
var ErrSessionInvalid = errors.New("trading backend session invalid")

// StatusError is returned for non-2xx backend responses other than auth
// failures. The body is kept verbatim so validation messages reach the
// operator untouched.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trading backend returned status %d: %s", e.StatusCode, e.Body)
}

// envelope mirrors the backend's standard response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the remote trading backend over REST. All business logic
// (ledger updates, settlement, validation beyond field checks) lives behind
// these endpoints; the gateway only shapes requests and reconciles responses.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a backend client with a bearer credential and timeout
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// do performs one round-trip and decodes the enveloped payload into out.
// POST/PUT requests carry an idempotency key so a retried submission after a
// transport failure cannot double-apply.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("trading backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("method", method).Str("path", path).Str("response", string(respBody)).Msg("Backend response")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrSessionInvalid, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w, body: %s", err, string(respBody))
	}

	return nil
}

// ListDeposits fetches the deposit request list in server order
func (c *Client) ListDeposits(ctx context.Context) ([]types.DepositRequest, error) {
	var requests []types.DepositRequest
	if err := c.do(ctx, http.MethodGet, "/api/v1/deposits", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveDeposit approves a single deposit request
func (c *Client) ApproveDeposit(ctx context.Context, requestID int64) error {
	payload := map[string]interface{}{
		"requestId": requestID,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/deposits/approve", payload, nil)
}

// RejectDeposit rejects a single deposit request with an optional reason
func (c *Client) RejectDeposit(ctx context.Context, requestID int64, reason string) error {
	payload := map[string]interface{}{
		"requestId": requestID,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return c.do(ctx, http.MethodPost, "/api/v1/deposits/reject", payload, nil)
}

// BulkProcessDeposits applies one action to the full id list in a single
// backend call. The backend treats the batch as atomic.
func (c *Client) BulkProcessDeposits(ctx context.Context, requestIDs []int64, action, reason string) error {
	payload := map[string]interface{}{
		"requestIds": requestIDs,
		"action":     action,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return c.do(ctx, http.MethodPost, "/api/v1/deposits/bulk", payload, nil)
}

// GetCustomer fetches a raw customer record. The shape varies between
// deployments, so the payload is handed back untyped for normalization.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/customers/"+customerID, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CreateCustomer submits a denormalized customer payload
func (c *Client) CreateCustomer(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	var created map[string]interface{}
	if err := c.do(ctx, http.MethodPost, "/api/v1/customers", payload, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateCustomer submits a denormalized customer payload for an existing record
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, payload map[string]interface{}) (map[string]interface{}, error) {
	var updated map[string]interface{}
	if err := c.do(ctx, http.MethodPut, "/api/v1/customers/"+customerID, payload, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}
