package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dev-Dami/Weather-App/internal/observability"
)

const DefaultBaseURL = "https://api.bigdatacloud.net"

const reversePath = "/data/reverse-geocode-client"

// Place is the subset of the reverse-geocoding response used to name a city.
type Place struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type StatusError struct {
	Status int
	Body   string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("reverse geocoding API returned status %d", e.Status)
	}
	return fmt.Sprintf("reverse geocoding API returned status %d: %s", e.Status, e.Body)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: observability.NewHTTPClient("bigdatacloud", timeout),
	}
}

// Reverse looks up the place at the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+reversePath+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Place{}, StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return Place{}, fmt.Errorf("decoding reverse geocoding response: %w", err)
	}
	return place, nil
}
