package domain

// RawItem is one piece of content returned by a provider before analysis.
type RawItem struct {
	Source   SourceType     `json:"source"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// ScoredResult is the final artifact of the pipeline: analyzed content with
// a summary and a normalized relevance score. Metadata carries the original
// item metadata merged with analysis metadata.
type ScoredResult struct {
	Source         SourceType     `json:"source"`
	Content        string         `json:"content"`
	Summary        string         `json:"summary,omitempty"`
	Metadata       map[string]any `json:"metadata"`
	RelevanceScore float64        `json:"relevance_score"`
}
