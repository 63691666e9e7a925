// Package placesearch wraps the external venue-search API used to top up
// alternative suggestions with new discoveries near a point.
package placesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// SearchParams scopes a nearby-venue search.
type SearchParams struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Keyword      string
	Category     types.PlaceCategory
	OpenNow      bool
	Limit        int
}

type Client interface {
	SearchNearby(ctx context.Context, params SearchParams) ([]types.PlaceSearchResult, error)
}

var _ Client = (*HTTPClient)(nil)

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
		// Open-now status goes stale quickly, keep the TTL short.
		cache: gocache.New(2*time.Minute, 5*time.Minute),
	}
}

type searchAPIResult struct {
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	OpeningHours     *struct {
		OpenNow bool `json:"open_now"`
	} `json:"opening_hours"`
}

type searchAPIResponse struct {
	Status  string            `json:"status"`
	Results []searchAPIResult `json:"results"`
}

func (c *HTTPClient) SearchNearby(ctx context.Context, params SearchParams) ([]types.PlaceSearchResult, error) {
	cacheKey := fmt.Sprintf("%.5f:%.5f:%.0f:%s:%s:%t",
		params.Latitude, params.Longitude, params.RadiusMeters, params.Keyword, params.Category, params.OpenNow)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]types.PlaceSearchResult), nil
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", params.Latitude, params.Longitude))
	q.Set("radius", strconv.Itoa(int(params.RadiusMeters)))
	q.Set("key", c.apiKey)
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	if params.Category != "" {
		q.Set("type", categoryToSearchType(params.Category))
	}
	if params.OpenNow {
		q.Set("opennow", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/place/nearbysearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building place search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling place search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place search returned status %d", resp.StatusCode)
	}

	var apiResp searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding place search response: %w", err)
	}
	if apiResp.Status != "OK" && apiResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("place search status %q", apiResp.Status)
	}

	results := make([]types.PlaceSearchResult, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		openNow := r.OpeningHours != nil && r.OpeningHours.OpenNow
		results = append(results, types.PlaceSearchResult{
			Name:        r.Name,
			Address:     r.Vicinity,
			Latitude:    r.Geometry.Location.Lat,
			Longitude:   r.Geometry.Location.Lng,
			Rating:      r.Rating,
			RatingCount: r.UserRatingsTotal,
			OpenNow:     openNow,
		})
		if params.Limit > 0 && len(results) >= params.Limit {
			break
		}
	}

	c.cache.Set(cacheKey, results, gocache.DefaultExpiration)
	return results, nil
}

// categoryToSearchType maps our internal categories to the search API's
// venue types.
func categoryToSearchType(c types.PlaceCategory) string {
	switch c {
	case types.CategoryFood:
		return "restaurant"
	case types.CategoryShopping:
		return "store"
	case types.CategoryAccommodation:
		return "lodging"
	case types.CategoryActivity:
		return "tourist_attraction"
	default:
		return "point_of_interest"
	}
}
