// Package provider contains the search provider capability consumed by the
// fetch stage, plus concrete HTTP clients for the supported search APIs.
// The pipeline treats every provider identically regardless of transport.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/0xM4sk/researcher/internal/domain"
)

// Common errors returned by providers
var (
	// ErrRequestFailed is returned when the provider endpoint cannot be
	// reached or answers with a non-success status.
	ErrRequestFailed = errors.New("provider request failed")

	// ErrBadResponse is returned when the provider answers with a payload
	// that cannot be decoded.
	ErrBadResponse = errors.New("provider returned malformed response")

	// ErrMissingAPIKey is returned at construction when a provider requires
	// an API key and none is configured.
	ErrMissingAPIKey = errors.New("provider API key is required")
)

// Provider is a source-specific search capability. Implementations are safe
// for concurrent use.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Source is the source type attached to every item this provider returns.
	Source() domain.SourceType

	// Fetch retrieves up to maxResults raw items for the query.
	Fetch(ctx context.Context, query string, maxResults int) ([]domain.RawItem, error)
}

// itemMetadata builds the common metadata map for a fetched item.
func itemMetadata(providerName, title, link string) map[string]any {
	metadata := map[string]any{
		"provider": providerName,
	}
	if title != "" {
		metadata["title"] = title
	}
	if link != "" {
		metadata["url"] = link
		if parsed, err := url.Parse(link); err == nil && parsed.Host != "" {
			metadata["domain"] = parsed.Host
		}
	}
	return metadata
}

// requestError wraps a transport or status failure as ErrRequestFailed.
func requestError(providerName string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRequestFailed, providerName, err)
}

// statusError reports a non-2xx provider response as ErrRequestFailed.
func statusError(providerName string, statusCode int) error {
	return fmt.Errorf("%w: %s: unexpected status %d", ErrRequestFailed, providerName, statusCode)
}

// decodeError wraps a body decoding failure as ErrBadResponse.
func decodeError(providerName string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBadResponse, providerName, err)
}
