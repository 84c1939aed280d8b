package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// HTTPAuthority consults the external permission-decision service over
// HTTP, retrying transient failures with an exponential backoff — the same
// resilience pattern the original service applies to its own outbound
// dependency calls.
type HTTPAuthority struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewHTTPAuthority constructs an authority client against baseURL.
func NewHTTPAuthority(baseURL string, logger *zap.Logger) *HTTPAuthority {
	return &HTTPAuthority{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     logger,
	}
}

type permissionResponse struct {
	Result struct {
		HasPermission bool `json:"has_permission"`
	} `json:"result"`
}

// HasPermission asks the authority whether identity holds capability over
// zone/action in containerCode, retrying transient (5xx / network) failures.
func (a *HTTPAuthority) HasPermission(ctx context.Context, containerCode, capability string, zone types.Zone, action string, identity Identity) (bool, error) {
	var allowed bool
	operation := func() error {
		q := url.Values{}
		q.Set("container_code", containerCode)
		q.Set("capability", capability)
		q.Set("zone", strconv.Itoa(int(zone)))
		q.Set("action", action)
		q.Set("username", identity.Username)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/v1/authorize?"+q.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := a.HTTPClient.Do(req)
		if err != nil {
			return err // network error: retry
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("authority returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("authority returned %d", resp.StatusCode))
		}
		var body permissionResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(err)
		}
		allowed = body.Result.HasPermission
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("permission authority call failed",
				zap.String("container_code", containerCode),
				zap.String("capability", capability),
				zap.Error(err))
		}
		return false, err
	}
	return allowed, nil
}
