// Package research implements the multi-stage research workflow: the stage
// sequencer, the concurrency-bounded cached fetch stage, the content
// analysis stage, and the orchestrator that drives them for one task.
package research
