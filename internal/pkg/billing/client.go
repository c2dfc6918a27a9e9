package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shopward/internal/pkg/env"
)

// The provider call is synchronous and sits on the request path, so the
// client carries a hard timeout instead of blocking a worker indefinitely.
// There is no retry here; resilience policy belongs to the caller.
const defaultTimeout = 15 * time.Second

const accessTokenHeader = "X-Platform-Access-Token"

// StatusClient reads the lifecycle status of a recurring charge from the
// payment provider's admin API on the tenant's shop domain.
type StatusClient struct {
	// Scheme and APIPath are overridable for tests and sandbox setups.
	Scheme  string
	APIPath string

	HTTPClient *http.Client
}

type chargeResponse struct {
	RecurringCharge struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"recurring_charge"`
}

// NewStatusClientFromEnv builds a status client with defaults taken from
// the environment.
func NewStatusClientFromEnv() *StatusClient {
	return &StatusClient{
		Scheme:  strings.TrimSpace(env.GetEnv("BILLING_API_SCHEME", "https")),
		APIPath: strings.TrimSpace(env.GetEnv("BILLING_API_PATH", "/admin/api/recurring_charges")),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// GetChargeStatus fetches the current status of a charge. Transport and
// provider errors are returned wrapped; they are never retried here.
func (c *StatusClient) GetChargeStatus(ctx context.Context, shopDomain, accessToken string, chargeID int64) (ChargeStatus, error) {
	if strings.TrimSpace(shopDomain) == "" {
		return "", errors.New("shop domain is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return "", errors.New("access token is required")
	}
	if chargeID <= 0 {
		return "", fmt.Errorf("invalid charge id %d", chargeID)
	}

	url := fmt.Sprintf("%s://%s%s/%d.json", c.scheme(), shopDomain, c.apiPath(), chargeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(accessTokenHeader, accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("billing status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("billing status request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out chargeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("billing status response malformed: %w", err)
	}
	if strings.TrimSpace(out.RecurringCharge.Status) == "" {
		return "", errors.New("billing status response carried no status")
	}

	return ParseChargeStatus(out.RecurringCharge.Status), nil
}

func (c *StatusClient) scheme() string {
	if c.Scheme != "" {
		return c.Scheme
	}
	return "https"
}

func (c *StatusClient) apiPath() string {
	if c.APIPath != "" {
		return c.APIPath
	}
	return "/admin/api/recurring_charges"
}

func (c *StatusClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}
