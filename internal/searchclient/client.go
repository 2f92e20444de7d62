// Package searchclient talks to the remote search service.
package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

var tracer = otel.Tracer("footprint/searchclient")

const requestIDHeader = "X-Request-ID"

// Client posts queries to the search endpoint.
type Client struct {
	httpClient     *http.Client
	endpoint       string
	healthEndpoint string
	limiter        *rate.Limiter
	maxBodyBytes   int64
	userAgent      string
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// NewClient creates a client for the endpoints in cfg.
func NewClient(cfg *types.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("searchclient: nil configuration provided")
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("searchclient: rate limit must be greater than 0")
	}

	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		endpoint:       cfg.SearchEndpoint(),
		healthEndpoint: cfg.HealthEndpoint(),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		maxBodyBytes:   cfg.MaxResponseBytes,
		userAgent:      cfg.UserAgent,
		requestTimeout: cfg.RequestTimeout,
		logger:         zap.NewNop(),
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = 10 << 20
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the search endpoint address.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Search posts q and returns the checked response payload. Any error is a
// *TransportError.
func (c *Client) Search(ctx context.Context, q types.Query) (*results.RawResponse, error) {
	ctx, span := tracer.Start(ctx, "searchclient.Search", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("search.endpoint", c.endpoint),
		attribute.String("search.name_fingerprint", fingerprint(q.Name)),
		attribute.Bool("search.has_extra_info", q.ExtraInfo != ""),
	)

	raw, err := c.search(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("search.result_shape", string(raw.Shape())))
	span.SetStatus(codes.Ok, "")
	return raw, nil
}

func (c *Client) search(ctx context.Context, q types.Query) (*results.RawResponse, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newTransportError(types.ErrorTypeRateLimit, c.endpoint, fmt.Sprintf("request not sent: %v", err), err)
	}

	payload, err := json.Marshal(q.Request())
	if err != nil {
		return nil, newTransportError(types.ErrorTypeUnknown, c.endpoint, fmt.Sprintf("failed to encode request: %v", err), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, newTransportError(types.ErrorTypeUnknown, c.endpoint, fmt.Sprintf("failed to build request: %v", err), err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	c.logger.Debug("Sending search request",
		zap.String("endpoint", c.endpoint),
		zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ClassifyRequestError(c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, ClassifyRequestError(c.endpoint, err)
	}

	c.logger.Debug("Search response received",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ClassifyHTTPStatus(c.endpoint, resp.StatusCode, string(body))
	}

	raw, err := results.ParseResponse(body)
	if err != nil {
		return nil, ClassifyRequestError(c.endpoint, err)
	}

	if raw.ServerError != "" {
		c.logger.Warn("Search service reported an error",
			zap.String("request_id", requestID),
			zap.String("error", raw.ServerError))
	}
	if none, ok := raw.Payload.(results.NoResults); ok {
		c.logger.Info("Search response carried no results",
			zap.String("request_id", requestID),
			zap.String("reason", none.Reason))
	}

	return raw, nil
}

var errBodyTooLarge = errors.New("response body exceeds size limit")

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, c.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, newTransportError(types.ErrorTypeMalformedPayload, c.endpoint,
			fmt.Sprintf("%v (%d bytes)", errBodyTooLarge, c.maxBodyBytes), errBodyTooLarge)
	}
	return body, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health checks the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "searchclient.Health", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthEndpoint, nil)
	if err != nil {
		return newTransportError(types.ErrorTypeUnknown, c.healthEndpoint, fmt.Sprintf("failed to build request: %v", err), err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return ClassifyRequestError(c.healthEndpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp.Body)
	if err != nil {
		return ClassifyRequestError(c.healthEndpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ClassifyHTTPStatus(c.healthEndpoint, resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return newTransportError(types.ErrorTypeMalformedPayload, c.healthEndpoint, "health response is not valid JSON", err)
	}
	if health.Status != "ok" {
		return newTransportError(types.ErrorTypeHTTPStatus, c.healthEndpoint, fmt.Sprintf("unexpected health status %q", health.Status), nil)
	}
	return nil
}
