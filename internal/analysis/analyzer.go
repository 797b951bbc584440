package analysis

import "context"

// Result is the outcome of analyzing one piece of content.
type Result struct {
	// Text is the analyzed content, possibly truncated by the analyzer.
	Text string `json:"text"`

	// Summary is a brief extract of the content. Empty when analysis
	// degraded.
	Summary string `json:"summary,omitempty"`

	// RelevanceScore is a normalized measure in [0,1] of how well the
	// content matches the research query.
	RelevanceScore float64 `json:"relevance"`
}

// Analyzer scores and summarizes a single piece of content.
// Implementations are safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (*Result, error)
}
