package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// Dispatcher hands notifications to the external push service.
// Fire-and-forget: delivery tracking is the dispatcher's problem, not ours.
type Dispatcher interface {
	Dispatch(ctx context.Context, n types.Notification) error
}

var _ Dispatcher = (*HTTPDispatcher)(nil)

type HTTPDispatcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPDispatcher(baseURL, apiKey string, timeout time.Duration) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, n types.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatching notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification dispatcher returned status %d", resp.StatusCode)
	}
	return nil
}
