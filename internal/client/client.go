// Package client submits cleaning problems to a remote server.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/budgetclean/internal/config"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
	"github.com/tensorplex-labs/budgetclean/internal/server"
)

type Client struct {
	baseURL     string
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// New builds a client whose transport retries failed requests with
// exponential backoff.
func New(cfg *config.ClientEnvConfig) (*Client, error) {
	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.RetryMax
	retry.RetryWaitMin = cfg.RetryWaitMin
	retry.RetryWaitMax = cfg.RetryWaitMax
	retry.CheckRetry = checkRetry
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retry.Logger = nil

	restyClient := resty.NewWithClient(retry.StandardClient()).
		SetTimeout(cfg.ClientTimeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	log.Info().
		Str("server_url", cfg.ServerURL).
		Int("retry_max", retry.RetryMax).
		Str("timeout", cfg.ClientTimeout.String()).
		Str("retry_wait_min", retry.RetryWaitMin.String()).
		Str("retry_wait_max", retry.RetryWaitMax.String()).
		Msg("client initialized")

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.ServerURL, "/"),
		restyClient: restyClient,
		encoder:     encoder,
		decoder:     decoder,
	}, nil
}

// checkRetry retries connection failures and gateway errors only. Other
// server errors come from the engine and would fail the same way again.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// Health reports whether the server answers its health route.
func (c *Client) Health(ctx context.Context) error {
	var out server.StdResponse[server.HealthResponse]
	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.baseURL + server.HealthRoute)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.IsError() || out.Body.Status != "ok" {
		return fmt.Errorf("health check failed: HTTP %d", resp.StatusCode())
	}
	return nil
}

// Clean submits p and waits for its report.
func (c *Client) Clean(ctx context.Context, p *problem.Problem) (*problem.Report, error) {
	jsonData, err := sonic.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal problem: %w", err)
	}
	compressed := c.encoder.EncodeAll(jsonData, nil)

	log.Debug().
		Str("problem_id", p.ID).
		Int("original_size", len(jsonData)).
		Int("compressed_size", len(compressed)).
		Msg("submitting problem")

	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Content-Encoding", "zstd").
		SetHeader("Accept-Encoding", "zstd").
		SetBody(compressed).
		Post(c.baseURL + server.CleanRoute)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	body := resp.Body()
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		body, err = c.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
	}

	var out server.StdResponse[*problem.Report]
	if err := sonic.Unmarshal(body, &out); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(body))
		}
		return nil, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode(), *out.Error)
	}
	if out.Body == nil {
		return nil, fmt.Errorf("server returned an empty report (HTTP %d)", resp.StatusCode())
	}
	return out.Body, nil
}
