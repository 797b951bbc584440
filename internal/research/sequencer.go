package research

// Stage is one phase of the research workflow.
type Stage int

// Workflow stages, in pipeline order.
const (
	// StageSearch fetches raw content from the configured providers.
	StageSearch Stage = iota

	// StageAnalyze scores and summarizes the fetched content.
	StageAnalyze

	// StageDone terminates the workflow.
	StageDone
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageSearch:
		return "search"
	case StageAnalyze:
		return "analyze"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// WorkflowState holds the transient per-task progress flags, owned by the
// orchestrator for the lifetime of one task execution and never persisted.
type WorkflowState struct {
	Searched bool
	Analyzed bool
}

// NextStage returns the stage to run for the given progress. The workflow
// is a strict linear pipeline: search, then analyze, then done. There is no
// backtracking and no re-entry into a prior stage.
func NextStage(state WorkflowState) Stage {
	switch {
	case !state.Searched:
		return StageSearch
	case !state.Analyzed:
		return StageAnalyze
	default:
		return StageDone
	}
}
