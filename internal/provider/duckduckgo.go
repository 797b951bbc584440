package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/0xM4sk/researcher/internal/domain"
)

const defaultDuckDuckGoBaseURL = "https://api.duckduckgo.com/"

// DuckDuckGoProvider queries the DuckDuckGo Instant Answer API. It needs no
// API key and contributes abstract plus related-topic snippets.
type DuckDuckGoProvider struct {
	baseURL string
	client  *http.Client
}

// NewDuckDuckGoProvider creates a DuckDuckGo provider.
func NewDuckDuckGoProvider(client *http.Client) *DuckDuckGoProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGoProvider{
		baseURL: defaultDuckDuckGoBaseURL,
		client:  client,
	}
}

// Name identifies the provider in logs.
func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Source is the source type attached to items from this provider.
func (p *DuckDuckGoProvider) Source() domain.SourceType { return domain.SourceWiki }

// duckDuckGoResponse is the subset of the Instant Answer response we use.
type duckDuckGoResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Fetch retrieves up to maxResults raw items for the query.
func (p *DuckDuckGoProvider) Fetch(ctx context.Context, query string, maxResults int) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")

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

	var decoded duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, decodeError(p.Name(), err)
	}

	var items []domain.RawItem
	if decoded.AbstractText != "" {
		items = append(items, domain.RawItem{
			Source:   p.Source(),
			Content:  decoded.AbstractText,
			Metadata: itemMetadata(p.Name(), decoded.Heading, decoded.AbstractURL),
		})
	}
	for _, topic := range decoded.RelatedTopics {
		if len(items) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Source:   p.Source(),
			Content:  topic.Text,
			Metadata: itemMetadata(p.Name(), "", topic.FirstURL),
		})
	}
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	return items, nil
}
