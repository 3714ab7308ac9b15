// Package adapter holds clients for the systems the console talks to: the
// remote contacts API and chain RPC endpoints.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vesting-console/internal/circuitbreaker"
	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/models"
	"github.com/vesting-console/internal/types"
)

const maxResponseBytes = 4 << 20

// ContactsClient issues create/read/update/delete/search calls for worker
// records against the contacts API. It never retries; callers re-trigger.
type ContactsClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter // nil when pacing is disabled
	breaker *circuitbreaker.CircuitBreaker
	logger  *logging.Logger
}

// ContactsClientConfig holds configuration for creating a ContactsClient
type ContactsClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	// HTTPClient overrides the default client, Timeout is ignored when set
	HTTPClient *http.Client
	// BreakerFailures consecutive upstream failures open the breaker, 0 disables it
	BreakerFailures int
	BreakerCooldown time.Duration
	Logger          *logging.Logger
}

// NewContactsClient creates a contacts API client
func NewContactsClient(cfg *ContactsClientConfig) (*ContactsClient, error) {
	if cfg == nil || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, apperrors.NewConfigError("CONTACTS_API_URL", "base URL is required")
	}

	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperrors.NewConfigError("CONTACTS_API_URL", fmt.Sprintf("invalid base URL %q", cfg.BaseURL))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}
	// Only unreachable or failing upstreams count; a 4xx is the caller's problem.
	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		Name:        "contacts_api",
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cooldown,
		IsFailure:   apperrors.IsSystemError,
		Logger:      logger,
	})

	return &ContactsClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger.WithComponent("contacts_client"),
	}, nil
}

// BaseURL returns the configured API root
func (c *ContactsClient) BaseURL() string {
	return c.baseURL
}

// BreakerStats reports the state of the client's circuit breaker
func (c *ContactsClient) BreakerStats() circuitbreaker.Stats {
	return c.breaker.GetStats()
}

// CreateWorker creates a worker record and returns it as stored by the server
func (c *ContactsClient) CreateWorker(ctx context.Context, input *models.WorkerInput) (*models.Worker, error) {
	var worker models.Worker
	if _, err := c.do(ctx, http.MethodPost, "/", nil, input, &worker); err != nil {
		return nil, err
	}
	return requireRecord(&worker, http.MethodPost, "/")
}

// GetWorkersByWallet lists the workers saved by address, in server order
func (c *ContactsClient) GetWorkersByWallet(ctx context.Context, address string) ([]models.Worker, error) {
	query := url.Values{}
	query.Set("savedBy", address)

	var workers []models.Worker
	if _, err := c.do(ctx, http.MethodGet, "/", query, nil, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// SearchWorkers runs a server-side search. ownerAddress may be empty.
func (c *ContactsClient) SearchWorkers(ctx context.Context, q, ownerAddress string) ([]models.Worker, error) {
	query := url.Values{}
	query.Set("q", q)
	if ownerAddress != "" {
		query.Set("savedBy", ownerAddress)
	}

	var workers []models.Worker
	if _, err := c.do(ctx, http.MethodGet, "/search", query, nil, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// GetWorker fetches one worker by id
func (c *ContactsClient) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	path := "/" + url.PathEscape(id)
	var worker models.Worker
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &worker); err != nil {
		return nil, err
	}
	return requireRecord(&worker, http.MethodGet, path)
}

// UpdateWorker applies a partial update. An unknown id surfaces as a RequestError.
func (c *ContactsClient) UpdateWorker(ctx context.Context, id string, patch *models.WorkerPatch) (*models.Worker, error) {
	path := "/" + url.PathEscape(id)
	var worker models.Worker
	if _, err := c.do(ctx, http.MethodPut, path, nil, patch, &worker); err != nil {
		return nil, err
	}
	return requireRecord(&worker, http.MethodPut, path)
}

// DeleteWorker deletes a worker and returns the server's confirmation message.
// Deleting the same id twice fails the second time.
func (c *ContactsClient) DeleteWorker(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil, nil)
}

// CountActive returns how many active workers savedBy owns
func (c *ContactsClient) CountActive(ctx context.Context, savedBy string) (int, error) {
	var count int
	if _, err := c.do(ctx, http.MethodGet, "/count/"+url.PathEscape(savedBy), nil, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// do sends one request through the breaker. An open breaker fails with 503
// without touching the network.
func (c *ContactsClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (string, error) {
	var message string
	err := c.breaker.Execute(func() error {
		var err error
		message, err = c.send(ctx, method, path, query, body, out)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		c.logger.WithFields(map[string]interface{}{"method": method, "path": path}).Warn("contacts API call skipped, circuit open")
		return "", apperrors.NewServiceUnavailableError("contacts API")
	}
	return message, err
}

// send issues one request and decodes the { data, message } envelope into out.
// It returns the envelope message.
func (c *ContactsClient) send(ctx context.Context, method, path string, query url.Values, body, out interface{}) (string, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &apperrors.NetworkError{Op: method, URL: endpoint, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return "", fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.WithFields(map[string]interface{}{
		"method":    method,
		"path":      path,
		"requestId": requestID,
	})

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.WithError(err).Warn("contacts API unreachable")
		return "", &apperrors.NetworkError{Op: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &apperrors.NetworkError{Op: method, URL: endpoint, Err: err}
	}

	logger.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("contacts API call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperrors.RequestError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, raw),
			Method:  method,
			Path:    path,
		}
	}

	var envelope types.Envelope[json.RawMessage]
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return "", &apperrors.RequestError{
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("invalid response body: %v", err),
				Method:  method,
				Path:    path,
			}
		}
	}

	// A missing or null data field leaves out at its zero value
	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return envelope.Message, &apperrors.RequestError{
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("invalid response data: %v", err),
				Method:  method,
				Path:    path,
			}
		}
	}

	return envelope.Message, nil
}

// requireRecord rejects a 2xx response that carried no worker
func requireRecord(worker *models.Worker, method, path string) (*models.Worker, error) {
	if worker.ID == "" {
		return nil, &apperrors.RequestError{
			Status:  http.StatusBadGateway,
			Message: "response has no worker record",
			Method:  method,
			Path:    path,
		}
	}
	return worker, nil
}

// errorMessage extracts the server's message from an error body
func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}
