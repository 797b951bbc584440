package analysis

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicAnalyzerScoresByLength(t *testing.T) {
	analyzer := NewHeuristicAnalyzer()
	ctx := context.Background()

	testCases := []struct {
		name      string
		content   string
		wantScore float64
	}{
		{name: "empty content scores zero", content: "", wantScore: 0.0},
		{name: "short content scales linearly", content: strings.Repeat("x", 250), wantScore: 0.25},
		{name: "exactly at divisor", content: strings.Repeat("x", 1000), wantScore: 1.0},
		{name: "long content caps at one", content: strings.Repeat("x", 5000), wantScore: 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := analyzer.Analyze(ctx, tc.content)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantScore, result.RelevanceScore, 1e-9)
		})
	}
}

func TestHeuristicAnalyzerSummary(t *testing.T) {
	analyzer := NewHeuristicAnalyzer()

	content := "First sentence. Second sentence. Third sentence. Fourth sentence."
	result, err := analyzer.Analyze(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, "First sentence. Second sentence. Third sentence.", result.Summary,
		"summary should keep only the first three sentences")
}

func TestHeuristicAnalyzerTruncatesText(t *testing.T) {
	analyzer := NewHeuristicAnalyzer()

	content := strings.Repeat("a", 800)
	result, err := analyzer.Analyze(context.Background(), content)
	require.NoError(t, err)

	assert.Len(t, result.Text, 500, "analyzed text should be truncated to 500 characters")
}

func TestHeuristicAnalyzerTruncatesOnRuneBoundary(t *testing.T) {
	analyzer := NewHeuristicAnalyzer()

	// Three-byte runes that do not divide the 500-byte limit evenly, so a
	// byte-index cut would land mid-rune.
	content := strings.Repeat("世", 300)
	result, err := analyzer.Analyze(context.Background(), content)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(result.Text), "truncation must not split a rune")
	assert.LessOrEqual(t, len(result.Text), 500)
	assert.True(t, strings.HasPrefix(content, result.Text))
}

func TestHeuristicAnalyzerEmptyContent(t *testing.T) {
	analyzer := NewHeuristicAnalyzer()

	result, err := analyzer.Analyze(context.Background(), "")
	require.NoError(t, err)

	assert.Zero(t, result.RelevanceScore)
	assert.Empty(t, result.Summary)
	assert.Empty(t, result.Text)
}
