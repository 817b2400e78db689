// Package delivery ships payloads to the collector with bounded retries.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
)

// RetryPolicy bounds how often one payload is attempted within a run.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 2 * time.Second}
}

// SleepFunc waits between attempts. It returns early with ctx's error.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client posts payloads to a single collector endpoint. It knows nothing
// about the failure queue; callers decide what to do with a false Deliver.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Retry    RetryPolicy
	Sleep    SleepFunc
	Logger   *zap.Logger
}

func New(endpoint string, timeout time.Duration, retry RetryPolicy, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	if retry.Delay < 0 {
		retry.Delay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
		Retry:    retry,
		Sleep:    sleepCtx,
		Logger:   logger,
	}
}

// Deliver reports true as soon as one attempt gets HTTP 200. There is no
// wait after the final attempt.
func (c *Client) Deliver(ctx context.Context, p domain.Payload) bool {
	attempts := c.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		err := c.Send(ctx, p)
		if err == nil {
			c.Logger.Debug("delivery_ok", zap.String("url", p.URL), zap.Int("attempt", i))
			return true
		}
		c.Logger.Warn("delivery_attempt_failed", append(errs.Zap(err),
			zap.String("url", p.URL),
			zap.Int("attempt", i),
			zap.Int("attempts", attempts),
		)...)
		if i == attempts {
			break
		}
		if err := c.sleep(ctx, c.Retry.Delay); err != nil {
			c.Logger.Info("delivery_cancelled", zap.String("url", p.URL), zap.Error(err))
			return false
		}
	}
	return false
}

// Send makes exactly one POST. Anything but 200 is an error.
func (c *Client) Send(ctx context.Context, p domain.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return errs.Wrap(err, errs.CodeDeliveryEncode, "encode payload", errs.Field("url", p.URL))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, errs.CodeDeliveryTransport, "build request", errs.Field("endpoint", c.Endpoint))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errs.Wrap(err, errs.CodeDeliveryTransport, "post payload", errs.Field("endpoint", c.Endpoint))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.CodeDeliveryStatus, "collector rejected payload",
			errs.Field("status", resp.StatusCode),
			errs.Field("endpoint", c.Endpoint),
		)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep == nil {
		return sleepCtx(ctx, d)
	}
	return c.Sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
