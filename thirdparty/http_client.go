package thirdparty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental/house"
)

const housePath = "/houses/house"

// HTTPClient posts listings to the system of record's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient returns a client for the API at baseURL. Deadlines come from
// the context passed to Publish; a nil client means http.DefaultClient.
func NewHTTPClient(baseURL string, client *http.Client, log *zap.Logger) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.Named("sync_http"),
	}
}

// Publish reports true for a 2xx answer and false with a nil error when the
// remote side rejects the listing with a 4xx. Transport failures and 5xx
// answers are returned as errors.
func (c *HTTPClient) Publish(ctx context.Context, h house.House) (bool, error) {
	body, err := json.Marshal(newPayload(h))
	if err != nil {
		return false, fmt.Errorf("thirdparty: encode house: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+housePath, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("thirdparty: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("thirdparty: post house %d: %w", h.ID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.log.Debug("house published", zap.Int64("house_id", h.ID), zap.Int("status", resp.StatusCode))
		return true, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.log.Info("house rejected by system of record", zap.Int64("house_id", h.ID), zap.Int("status", resp.StatusCode))
		return false, nil
	default:
		return false, fmt.Errorf("thirdparty: post house %d: unexpected status %d", h.ID, resp.StatusCode)
	}
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
