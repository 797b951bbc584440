package analysis

import "errors"

// Common errors returned by the analysis package
var (
	// ErrAnalysisFailed is returned when content analysis fails for any
	// general reason.
	ErrAnalysisFailed = errors.New("failed to analyze content")

	// ErrInvalidResponse is returned when an analyzer backend's response
	// cannot be parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from analyzer backend")

	// ErrContentBlocked is returned when the backend refuses the content
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by analyzer safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during analysis")

	// ErrInvalidConfig is returned when the analyzer configuration is invalid.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")
)
