// Package syncclient replays queued operations against the ronda server by
// posting single-operation sync batches.
package syncclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/pkg/logger"
)

var (
	ErrMissingOperationID = errors.New("operation id missing from context")
	ErrUnexpectedResponse = errors.New("unexpected sync response")
)

type Client struct {
	baseURL    string
	contratoID string
	http       *http.Client
	log        logger.Logger
}

type Option func(*Client)

func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL, contratoID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		contratoID: contratoID,
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type batchRequest struct {
	Operations []operationRequest `json:"operations"`
}

type operationRequest struct {
	OperationID string          `json:"operation_id"`
	Kind        string          `json:"kind"`
	Entity      string          `json:"entity"`
	EntityID    string          `json:"entity_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

type batchResponse struct {
	SyncID  string            `json:"sync_id"`
	Status  string            `json:"status"`
	Results []operationResult `json:"results"`
}

type operationResult struct {
	OperationID string          `json:"operation_id"`
	Status      string          `json:"status"`
	EntityID    *string         `json:"entity_id"`
	Error       *operationError `json:"error"`
}

type operationError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RemoteError is a rejection reported by the server, either for the whole
// request or for the single operation it carried.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sync rejected (HTTP %d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("sync rejected (%s): %s", e.Code, e.Message)
}

func (c *Client) Create(ctx context.Context, entity, id string, payload []byte) error {
	return c.send(ctx, "CREATE", entity, id, payload)
}

func (c *Client) Update(ctx context.Context, entity, id string, payload []byte) error {
	return c.send(ctx, "UPDATE", entity, id, payload)
}

func (c *Client) Delete(ctx context.Context, entity, id string) error {
	return c.send(ctx, "DELETE", entity, id, nil)
}

func (c *Client) send(ctx context.Context, kind, entity, id string, payload []byte) error {
	operationID := engine.OperationID(ctx)
	if operationID == "" {
		return engine.Permanent(ErrMissingOperationID)
	}

	body, err := json.Marshal(batchRequest{Operations: []operationRequest{{
		OperationID: operationID,
		Kind:        kind,
		Entity:      entity,
		EntityID:    id,
		Payload:     payload,
	}}})
	if err != nil {
		return engine.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	endpoint := c.baseURL + "/api/contratos/" + url.PathEscape(c.contratoID) + "/sync"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return engine.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var envelope apiError
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Code != "" {
			remoteErr.Code = envelope.Error.Code
			remoteErr.Message = envelope.Error.Message
		}
		if permanentStatus(resp.StatusCode) {
			return engine.Permanent(remoteErr)
		}
		return remoteErr
	}

	var batch batchResponse
	if err := json.Unmarshal(respBody, &batch); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	result, ok := findResult(batch.Results, operationID)
	if !ok {
		return fmt.Errorf("%w: no result for operation %s", ErrUnexpectedResponse, operationID)
	}

	switch result.Status {
	case "applied", "duplicate":
		c.log.Debug("syncclient: operation acknowledged",
			"operation_id", operationID,
			"entity", entity,
			"status", result.Status,
			"sync_id", batch.SyncID,
		)
		return nil
	case "failed":
		remoteErr := &RemoteError{Code: "unknown", Message: "operation failed"}
		retryable := true
		if result.Error != nil {
			remoteErr.Code = result.Error.Code
			remoteErr.Message = result.Error.Message
			retryable = result.Error.Retryable
		}
		if !retryable {
			return engine.Permanent(remoteErr)
		}
		return remoteErr
	default:
		return fmt.Errorf("%w: status %q", ErrUnexpectedResponse, result.Status)
	}
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: HTTP %d", resp.StatusCode)
	}
	return nil
}

func permanentStatus(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}

func findResult(results []operationResult, operationID string) (operationResult, bool) {
	for _, result := range results {
		if result.OperationID == operationID {
			return result, true
		}
	}
	return operationResult{}, false
}
