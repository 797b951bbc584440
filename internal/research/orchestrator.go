package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/task"
)

// ResearchPayload is the task payload for a research job.
type ResearchPayload struct {
	Query domain.ResearchQuery `json:"query"`
}

// Orchestrator drives one research task through the workflow stages in
// order and assembles the final outcome.
type Orchestrator struct {
	fetch   *FetchStage
	analyze *AnalysisStage
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given stages.
func NewOrchestrator(fetch *FetchStage, analyze *AnalysisStage, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		fetch:   fetch,
		analyze: analyze,
		logger:  logger.With(slog.String("component", "orchestrator")),
	}
}

// Run executes the full workflow for one query and returns the scored,
// ordered results.
func (o *Orchestrator) Run(ctx context.Context, query domain.ResearchQuery) ([]domain.ScoredResult, error) {
	var (
		state   WorkflowState
		items   []domain.RawItem
		results []domain.ScoredResult
	)

	for {
		stage := NextStage(state)
		o.logger.DebugContext(ctx, "entering stage", slog.String("stage", stage.String()))

		switch stage {
		case StageSearch:
			fetched, err := o.fetch.Fetch(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("search stage: %w", err)
			}
			items = filterByDomain(fetched, query.SearchParams)
			state.Searched = true

		case StageAnalyze:
			scored, err := o.analyze.Analyze(ctx, query, items)
			if err != nil {
				return nil, fmt.Errorf("analyze stage: %w", err)
			}
			results = scored
			state.Analyzed = true

		case StageDone:
			return results, nil
		}
	}
}

// Handler adapts the orchestrator to the task runner contract for research
// tasks. The payload must carry a valid query; a malformed or invalid
// payload fails the task. The returned value is the bare list of scored
// results, which the runner stores under the task state's result key.
func (o *Orchestrator) Handler() task.Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p ResearchPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("malformed research payload: %w", err)
		}
		if err := p.Query.Validate(); err != nil {
			return nil, fmt.Errorf("invalid research query: %w", err)
		}

		return o.Run(ctx, p.Query)
	}
}

// filterByDomain applies the query's include and exclude domain lists to the
// fetched items. Items with no recorded domain pass an empty include list
// and are only removed by an explicit exclude match.
func filterByDomain(items []domain.RawItem, params domain.SearchParameters) []domain.RawItem {
	if len(params.IncludeDomains) == 0 && len(params.ExcludeDomains) == 0 {
		return items
	}

	included := make(map[string]struct{}, len(params.IncludeDomains))
	for _, d := range params.IncludeDomains {
		included[d] = struct{}{}
	}
	excluded := make(map[string]struct{}, len(params.ExcludeDomains))
	for _, d := range params.ExcludeDomains {
		excluded[d] = struct{}{}
	}

	var out []domain.RawItem
	for _, item := range items {
		itemDomain, _ := item.Metadata["domain"].(string)
		if _, ok := excluded[itemDomain]; ok {
			continue
		}
		if len(included) > 0 && itemDomain != "" {
			if _, ok := included[itemDomain]; !ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}
