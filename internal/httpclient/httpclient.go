package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/palgania/launcher/internal/perf"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxRetries int
	Interval   time.Duration
}

type RLHTTPClient struct {
	client      *http.Client
	Ratelimiter *rate.Limiter
	RetryConfig *RetryConfig
}

func (client *RLHTTPClient) Do(request *http.Request) (*http.Response, error) {
	ctx, requestSpan := perf.StartSpan(request.Context(), "net.http.request",
		perf.WithAttributes(
			attribute.String("url", request.URL.String()),
			attribute.String("method", request.Method),
			attribute.String("host", request.URL.Host),
		),
	)
	defer requestSpan.End()
	retryConfig := client.retryConfig()

	var response *http.Response
	var err error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		shouldRetry := false
		response, shouldRetry, err = client.doAttempt(ctx, request, attempt, retryConfig)
		if err != nil {
			requestSpan.SetAttributes(
				attribute.Bool("success", false),
				attribute.String("error_type", fmt.Sprintf("%T", err)),
			)
			return nil, err
		}
		if shouldRetry {
			continue
		}
		break
	}

	requestSpan.SetAttributes(attribute.Bool("success", err == nil))
	if response != nil {
		requestSpan.SetAttributes(attribute.Int("status", response.StatusCode))
	}
	return response, err
}

func (client *RLHTTPClient) retryConfig() RetryConfig {
	if client.RetryConfig != nil {
		return *client.RetryConfig
	}
	return RetryConfig{
		MaxRetries: 3,
		Interval:   1 * time.Second,
	}
}

func (client *RLHTTPClient) doAttempt(
	ctx context.Context,
	request *http.Request,
	attempt int,
	retryConfig RetryConfig,
) (*http.Response, bool, error) {
	waitErr := client.Ratelimiter.Wait(ctx) // This is a blocking call. Honors the rate limit
	if waitErr != nil {
		if IsTimeoutError(waitErr) {
			return nil, false, WrapTimeoutError(waitErr)
		}
		return nil, false, fmt.Errorf("rate limit burst exceeded %w", waitErr)
	}

	response, err := client.client.Do(request.WithContext(ctx))
	if err != nil {
		return nil, false, WrapTimeoutError(err)
	}

	if shouldRetry(response, attempt, retryConfig) {
		_ = drainAndClose(response.Body)
		time.Sleep(retryConfig.Interval)
		return nil, true, nil
	}

	return response, false, nil
}

// shouldRetry is true for server errors only; 4xx responses (including 429)
// are classified by the caller, never retried here.
func shouldRetry(response *http.Response, attempt int, retryConfig RetryConfig) bool {
	return response.StatusCode >= 500 && response.StatusCode < 600 && attempt < retryConfig.MaxRetries
}

func NewRLClient(limiter *rate.Limiter) *RLHTTPClient {
	client := &RLHTTPClient{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Ratelimiter: limiter,
	}
	return client
}

func NoRetries() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 0,
		Interval:   0,
	}
}

func drainAndClose(body io.ReadCloser) error {
	if body == nil {
		return nil
	}

	_, readErr := io.Copy(io.Discard, body)
	closeErr := body.Close()
	if readErr != nil && closeErr != nil {
		return errors.Join(readErr, closeErr)
	}
	if readErr != nil {
		return readErr
	}
	return closeErr
}
