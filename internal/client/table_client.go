package client

import (
	"context"
	"fmt"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/metrics"
	"pool_monitor/internal/port"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLoggedBody caps how much of an error response ends up in logs and errors.
const maxLoggedBody = 512

// tableClientImpl is the fasthttp implementation of port.TableClient.
type tableClientImpl struct {
	client   *fasthttp.Client
	endpoint string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Option customizes a table client.
type Option func(*tableClientImpl)

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(t *tableClientImpl) {
		t.client = c
	}
}

// WithRateLimiter shares one limiter between every source hitting the same node.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(t *tableClientImpl) {
		t.limiter = l
	}
}

// NewTableClient creates a client posting get_table_rows requests to endpoint.
func NewTableClient(endpoint string, timeout time.Duration, logger *zap.Logger, opts ...Option) port.TableClient {
	c := &tableClientImpl{
		client:   &fasthttp.Client{Name: "pool_monitor"},
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger.Named("TableClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTableRows implements port.TableClient.
func (c *tableClientImpl) GetTableRows(ctx context.Context, sourceID string, tr entity.TableRowsRequest) (page *entity.TableRowsPage, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.PageRequests.WithLabelValues(sourceID, result).Inc()
	}()

	fail := func(status int, cause error) error {
		return &entity.PageFetchError{Source: sourceID, Cursor: tr.LowerBound, StatusCode: status, Cause: cause}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, fmt.Errorf("rate limiter: %w", err))
		}
	}

	body, err := json.Marshal(tr)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	c.logger.Debug("Requesting table rows",
		zap.String("source", sourceID),
		zap.String("code", tr.Code),
		zap.String("scope", tr.Scope),
		zap.String("table", tr.Table),
		zap.String("lowerBound", tr.LowerBound))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Warn("Table rows request failed", zap.String("source", sourceID), zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, fail(0, fmt.Errorf("failed to execute request to %s: %w", c.endpoint, err))
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		snippet := truncate(rawBody)
		c.logger.Warn("Table rows request returned non-OK status",
			zap.String("source", sourceID),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", snippet))
		return nil, fail(resp.StatusCode(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), snippet))
	}

	var decoded entity.TableRowsPage
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		c.logger.Warn("Failed to unmarshal table rows response",
			zap.String("source", sourceID),
			zap.ByteString("responseBody", truncate(rawBody)),
			zap.Error(err))
		return nil, fail(0, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err))
	}
	if decoded.Rows == nil {
		return nil, fail(0, fmt.Errorf("%w: missing rows", entity.ErrMalformedResponse))
	}

	c.logger.Debug("Received table rows page",
		zap.String("source", sourceID),
		zap.Int("rows", len(decoded.Rows)),
		zap.Bool("more", decoded.More),
		zap.String("nextKey", string(decoded.NextKey)))
	return &decoded, nil
}

func truncate(b []byte) []byte {
	if len(b) <= maxLoggedBody {
		return b
	}
	return b[:maxLoggedBody]
}
