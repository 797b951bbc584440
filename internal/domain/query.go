package domain

import (
	"errors"
	"fmt"
	"time"
)

// SourceType identifies a class of research sources a query can target.
type SourceType string

// Available research source types
const (
	SourceWeb       SourceType = "web"
	SourceWiki      SourceType = "wikipedia"
	SourceAcademic  SourceType = "academic"
	SourceNews      SourceType = "news"
	SourceScholarly SourceType = "scholarly"
)

// Query length bounds and result limits enforced at the boundary.
const (
	MinQueryLength = 3
	MaxQueryLength = 500
	MinResults     = 1
	MaxResults     = 50
	MinSearchDepth = 1
	MaxSearchDepth = 5
)

// Common validation errors for ResearchQuery
var (
	ErrQueryTooShort       = fmt.Errorf("query must be at least %d characters", MinQueryLength)
	ErrQueryTooLong        = fmt.Errorf("query must be at most %d characters", MaxQueryLength)
	ErrNoSources           = errors.New("at least one source is required")
	ErrInvalidSource       = errors.New("invalid source type")
	ErrInvalidMaxResults   = fmt.Errorf("max results must be between %d and %d", MinResults, MaxResults)
	ErrInvalidSearchDepth  = fmt.Errorf("search depth must be between %d and %d", MinSearchDepth, MaxSearchDepth)
	ErrInvalidMinRelevance = errors.New("minimum relevance score must be between 0 and 1")
	ErrInvalidDateRange    = errors.New("date range start must not be after end")
)

// DateRange restricts results to a publication window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SearchParameters are optional tuning knobs for a research query.
type SearchParameters struct {
	MaxDepth          int        `json:"max_depth"`
	MinRelevanceScore float64    `json:"min_relevance_score"`
	IncludeDomains    []string   `json:"include_domains,omitempty"`
	ExcludeDomains    []string   `json:"exclude_domains,omitempty"`
	DateRange         *DateRange `json:"date_range,omitempty"`
}

// DefaultSearchParameters returns the parameter values applied when a query
// carries no explicit tuning. The relevance threshold defaults to zero so
// results are only filtered when the caller asks for it.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		MaxDepth:          2,
		MinRelevanceScore: 0,
	}
}

// Validate checks the search parameters against their allowed ranges.
func (p SearchParameters) Validate() error {
	if p.MaxDepth < MinSearchDepth || p.MaxDepth > MaxSearchDepth {
		return ErrInvalidSearchDepth
	}
	if p.MinRelevanceScore < 0 || p.MinRelevanceScore > 1 {
		return ErrInvalidMinRelevance
	}
	if p.DateRange != nil && p.DateRange.Start.After(p.DateRange.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// ResearchQuery describes one research request: what to search for, which
// sources to consult, and how many results the caller wants back.
// It is validated at the boundary before entering the queue; the pipeline
// assumes an already-valid query.
type ResearchQuery struct {
	Query        string           `json:"query"`
	Sources      []SourceType     `json:"sources"`
	MaxResults   int              `json:"max_results"`
	SearchParams SearchParameters `json:"search_params"`
}

// NewResearchQuery builds a validated ResearchQuery, applying default search
// parameters where the caller supplied none.
func NewResearchQuery(query string, sources []SourceType, maxResults int, params *SearchParameters) (*ResearchQuery, error) {
	applied := DefaultSearchParameters()
	if params != nil {
		applied = *params
	}

	q := &ResearchQuery{
		Query:        query,
		Sources:      sources,
		MaxResults:   maxResults,
		SearchParams: applied,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks if the ResearchQuery has valid data.
// Returns an error if any field fails validation.
func (q *ResearchQuery) Validate() error {
	if len(q.Query) < MinQueryLength {
		return ErrQueryTooShort
	}
	if len(q.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}

	if len(q.Sources) == 0 {
		return ErrNoSources
	}
	for _, s := range q.Sources {
		if !isValidSourceType(s) {
			return fmt.Errorf("%w: %q", ErrInvalidSource, s)
		}
	}

	if q.MaxResults < MinResults || q.MaxResults > MaxResults {
		return ErrInvalidMaxResults
	}

	return q.SearchParams.Validate()
}

// isValidSourceType checks if the given source is a known SourceType.
func isValidSourceType(s SourceType) bool {
	switch s {
	case SourceWeb, SourceWiki, SourceAcademic, SourceNews, SourceScholarly:
		return true
	default:
		return false
	}
}
