package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		name  string
		state WorkflowState
		want  Stage
	}{
		{
			name:  "fresh workflow starts with search",
			state: WorkflowState{},
			want:  StageSearch,
		},
		{
			name:  "after search comes analysis",
			state: WorkflowState{Searched: true},
			want:  StageAnalyze,
		},
		{
			name:  "after analysis the workflow is done",
			state: WorkflowState{Searched: true, Analyzed: true},
			want:  StageDone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStage(tc.state))
		})
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "search", StageSearch.String())
	assert.Equal(t, "analyze", StageAnalyze.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
