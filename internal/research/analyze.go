package research

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/0xM4sk/researcher/internal/analysis"
	"github.com/0xM4sk/researcher/internal/domain"
)

// AnalysisStage scores and summarizes raw items. Every item is analyzed
// concurrently; the fetch stage's truncation already bounds the fan-out, so
// no admission control applies here. A failed analysis degrades to a
// zero-score result instead of failing the stage.
type AnalysisStage struct {
	analyzer analysis.Analyzer
	logger   *slog.Logger
}

// NewAnalysisStage creates an analysis stage backed by the given analyzer.
func NewAnalysisStage(analyzer analysis.Analyzer, logger *slog.Logger) *AnalysisStage {
	return &AnalysisStage{
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "analysis_stage")),
	}
}

// Analyze scores every item and returns the results ordered by descending
// relevance. Ties keep the items' fetch order. Results below the query's
// relevance threshold are dropped, and the output is capped at the query's
// max results.
func (a *AnalysisStage) Analyze(ctx context.Context, query domain.ResearchQuery, items []domain.RawItem) ([]domain.ScoredResult, error) {
	scored := make([]domain.ScoredResult, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item domain.RawItem) {
			defer wg.Done()
			scored[i] = a.analyzeItem(ctx, item)
		}(i, item)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stable sort so equal scores keep their fetch order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	if threshold := query.SearchParams.MinRelevanceScore; threshold > 0 {
		filtered := scored[:0]
		for _, r := range scored {
			if r.RelevanceScore >= threshold {
				filtered = append(filtered, r)
			}
		}
		scored = filtered
	}

	if query.MaxResults > 0 && len(scored) > query.MaxResults {
		scored = scored[:query.MaxResults]
	}

	a.logger.InfoContext(ctx, "analysis complete",
		slog.Int("analyzed", len(items)),
		slog.Int("returned", len(scored)))
	return scored, nil
}

// analyzeItem runs one item through the analyzer. Any failure produces a
// degraded result carrying the raw content with a zero score so the item is
// still visible downstream.
func (a *AnalysisStage) analyzeItem(ctx context.Context, item domain.RawItem) domain.ScoredResult {
	degraded := domain.ScoredResult{
		Source:         item.Source,
		Content:        item.Content,
		Metadata:       item.Metadata,
		RelevanceScore: 0,
	}

	result, err := a.analyzer.Analyze(ctx, item.Content)
	if err != nil {
		a.logger.WarnContext(ctx, "analysis degraded",
			slog.String("source", string(item.Source)),
			slog.String("error", err.Error()))
		return degraded
	}

	return domain.ScoredResult{
		Source:         item.Source,
		Content:        result.Text,
		Summary:        result.Summary,
		Metadata:       item.Metadata,
		RelevanceScore: result.RelevanceScore,
	}
}
