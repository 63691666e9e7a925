package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// Client resolves an address string to geocode candidates.
type Client interface {
	Geocode(ctx context.Context, address string) ([]types.GeocodeCandidate, error)
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the external geocoder over HTTP. Responses are cached
// for a short TTL: users routinely re-edit a place a few times in a row and
// every edit re-geocodes the same string.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *gocache.Cache
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(15*time.Minute, 30*time.Minute),
	}
}

type geocodeAPIResult struct {
	FormattedAddress  string   `json:"formatted_address"`
	Types             []string `json:"types"`
	AddressComponents []struct {
		LongName string `json:"long_name"`
	} `json:"address_components"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type geocodeAPIResponse struct {
	Status  string             `json:"status"`
	Results []geocodeAPIResult `json:"results"`
}

func (c *HTTPClient) Geocode(ctx context.Context, address string) ([]types.GeocodeCandidate, error) {
	if cached, ok := c.cache.Get(address); ok {
		return cached.([]types.GeocodeCandidate), nil
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var apiResp geocodeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if apiResp.Status != "OK" && apiResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("geocoder status %q", apiResp.Status)
	}

	candidates := make([]types.GeocodeCandidate, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		candidates = append(candidates, types.GeocodeCandidate{
			FormattedAddress:  r.FormattedAddress,
			Latitude:          r.Geometry.Location.Lat,
			Longitude:         r.Geometry.Location.Lng,
			ResultTypes:       r.Types,
			AddressComponents: len(r.AddressComponents),
		})
	}

	c.cache.Set(address, candidates, gocache.DefaultExpiration)
	return candidates, nil
}
