// Package analysis provides the content-analysis capability consumed by the
// analysis stage. It abstracts how relevance scores and summaries are
// produced, so the pipeline works the same with the Gemini-backed analyzer
// or the local heuristic one.
package analysis
