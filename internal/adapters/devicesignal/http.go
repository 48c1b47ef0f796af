package devicesignal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"judokit/internal/core/ports"
)

var _ ports.DeviceSignalProvider = (*HTTPProvider)(nil)

// HTTPProvider fetches the fraud signal from a fingerprinting service that
// answers GET with a JSON object.
type HTTPProvider struct {
	client *http.Client
	url    string
}

// NewHTTPProvider - creates a provider with a short timeout; a slow
// fingerprint service must not hold up a payment.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (p *HTTPProvider) Signal(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("deviceSignal: http.NewRequest: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deviceSignal: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deviceSignal: unexpected status %s", resp.Status)
	}

	var signal map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&signal); err != nil {
		return nil, fmt.Errorf("deviceSignal: json.Decode: %w", err)
	}
	return signal, nil
}

// Static always returns the same signal.
type Static map[string]any

func (s Static) Signal(context.Context) (map[string]any, error) {
	return map[string]any(s), nil
}
