package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/0xM4sk/researcher/internal/domain"
)

const defaultGoogleBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleProvider queries the Google Custom Search JSON API.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a Google Custom Search provider.
func NewGoogleProvider(apiKey string, client *http.Client) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleProvider{
		apiKey:  apiKey,
		baseURL: defaultGoogleBaseURL,
		client:  client,
	}, nil
}

// Name identifies the provider in logs.
func (p *GoogleProvider) Name() string { return "google" }

// Source is the source type attached to items from this provider.
func (p *GoogleProvider) Source() domain.SourceType { return domain.SourceWeb }

// googleSearchResponse is the subset of the Custom Search response we use.
type googleSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Fetch retrieves up to maxResults raw items for the query.
func (p *GoogleProvider) Fetch(ctx context.Context, query string, maxResults int) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, requestError(p.Name(), err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, requestError(p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(p.Name(), resp.StatusCode)
	}

	var decoded googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, decodeError(p.Name(), err)
	}

	items := make([]domain.RawItem, 0, len(decoded.Items))
	for _, entry := range decoded.Items {
		items = append(items, domain.RawItem{
			Source:   p.Source(),
			Content:  entry.Snippet,
			Metadata: itemMetadata(p.Name(), entry.Title, entry.Link),
		})
	}
	return items, nil
}
