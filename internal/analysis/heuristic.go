package analysis

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	// maxAnalyzedTextLength bounds the content carried into the result.
	maxAnalyzedTextLength = 500

	// summarySentences is how many leading sentences form the summary.
	summarySentences = 3

	// relevanceLengthDivisor normalizes content length to a [0,1] score.
	relevanceLengthDivisor = 1000.0
)

// HeuristicAnalyzer scores content without calling any external service:
// relevance grows with content length up to a cap, and the summary is the
// first few sentences. It is the default analyzer when no Gemini API key
// is configured.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates a heuristic analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze scores and summarizes a single piece of content.
func (a *HeuristicAnalyzer) Analyze(_ context.Context, content string) (*Result, error) {
	return &Result{
		Text:           truncate(content, maxAnalyzedTextLength),
		Summary:        extractSummary(content),
		RelevanceScore: scoreRelevance(content),
	}, nil
}

// scoreRelevance maps content length onto [0,1].
func scoreRelevance(content string) float64 {
	if content == "" {
		return 0.0
	}
	score := float64(len(content)) / relevanceLengthDivisor
	if score > 1.0 {
		return 1.0
	}
	return score
}

// extractSummary returns the first few sentences of the content.
func extractSummary(content string) string {
	if content == "" {
		return ""
	}
	sentences := strings.Split(content, ".")
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	summary := strings.TrimSpace(strings.Join(sentences, "."))
	if summary == "" {
		return ""
	}
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
