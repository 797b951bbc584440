package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/0xM4sk/researcher/internal/domain"
)

const defaultSerperBaseURL = "https://api.serper.dev/search"

// SerperProvider queries the serper.dev search API.
type SerperProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerperProvider creates a serper.dev provider.
func NewSerperProvider(apiKey string, client *http.Client) (*SerperProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SerperProvider{
		apiKey:  apiKey,
		baseURL: defaultSerperBaseURL,
		client:  client,
	}, nil
}

// Name identifies the provider in logs.
func (p *SerperProvider) Name() string { return "serper" }

// Source is the source type attached to items from this provider.
func (p *SerperProvider) Source() domain.SourceType { return domain.SourceNews }

// serperSearchResponse is the subset of the serper.dev response we use.
type serperSearchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Fetch retrieves up to maxResults raw items for the query.
func (p *SerperProvider) Fetch(ctx context.Context, query string, maxResults int) ([]domain.RawItem, error) {
	body, err := json.Marshal(map[string]any{
		"q":   query,
		"num": maxResults,
	})
	if err != nil {
		return nil, requestError(p.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, requestError(p.Name(), err)
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, requestError(p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(p.Name(), resp.StatusCode)
	}

	var decoded serperSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, decodeError(p.Name(), err)
	}

	items := make([]domain.RawItem, 0, len(decoded.Organic))
	for _, entry := range decoded.Organic {
		items = append(items, domain.RawItem{
			Source:   p.Source(),
			Content:  entry.Snippet,
			Metadata: itemMetadata(p.Name(), entry.Title, entry.Link),
		})
	}
	return items, nil
}
