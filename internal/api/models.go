package api

import (
	"time"

	"github.com/0xM4sk/researcher/internal/domain"
)

// Common request/response structures

// DateRangeRequest restricts results to a publication window.
type DateRangeRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end"   validate:"required"`
}

// SearchParametersRequest carries the optional tuning knobs of a research
// request. Absent fields fall back to the domain defaults.
type SearchParametersRequest struct {
	MaxDepth          *int              `json:"max_depth,omitempty"          validate:"omitempty,min=1,max=5"`
	MinRelevanceScore *float64          `json:"min_relevance_score,omitempty" validate:"omitempty,min=0,max=1"`
	IncludeDomains    []string          `json:"include_domains,omitempty"`
	ExcludeDomains    []string          `json:"exclude_domains,omitempty"`
	DateRange         *DateRangeRequest `json:"date_range,omitempty"`
}

// CreateResearchRequest defines the payload for submitting a research job.
type CreateResearchRequest struct {
	Query        string                   `json:"query"         validate:"required,min=3,max=500"`
	Sources      []string                 `json:"sources"       validate:"required,min=1,dive,required"`
	MaxResults   int                      `json:"max_results"   validate:"required,min=1,max=50"`
	SearchParams *SearchParametersRequest `json:"search_params,omitempty"`
}

// ToDomain converts the request into a validated domain query.
func (r CreateResearchRequest) ToDomain() (*domain.ResearchQuery, error) {
	sources := make([]domain.SourceType, len(r.Sources))
	for i, s := range r.Sources {
		sources[i] = domain.SourceType(s)
	}

	var params *domain.SearchParameters
	if r.SearchParams != nil {
		applied := domain.DefaultSearchParameters()
		if r.SearchParams.MaxDepth != nil {
			applied.MaxDepth = *r.SearchParams.MaxDepth
		}
		if r.SearchParams.MinRelevanceScore != nil {
			applied.MinRelevanceScore = *r.SearchParams.MinRelevanceScore
		}
		applied.IncludeDomains = r.SearchParams.IncludeDomains
		applied.ExcludeDomains = r.SearchParams.ExcludeDomains
		if r.SearchParams.DateRange != nil {
			applied.DateRange = &domain.DateRange{
				Start: r.SearchParams.DateRange.Start,
				End:   r.SearchParams.DateRange.End,
			}
		}
		params = &applied
	}

	return domain.NewResearchQuery(r.Query, sources, r.MaxResults, params)
}

// CreateResearchResponse acknowledges an accepted research job.
type CreateResearchResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ResearchStatusResponse reports the state of a research job.
type ResearchStatusResponse struct {
	TaskID      string         `json:"task_id"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	FailedAt    *time.Time     `json:"failed_at,omitempty"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}
