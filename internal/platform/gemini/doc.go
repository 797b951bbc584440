// Package gemini implements the analysis.Analyzer interface using Google's
// Gemini API. It handles prompt construction, response parsing, retry with
// exponential backoff for transient failures, and classification of
// permanent errors such as safety blocks.
package gemini
