package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/0xM4sk/researcher/internal/api/shared"
	"github.com/0xM4sk/researcher/internal/research"
	"github.com/0xM4sk/researcher/internal/task"
)

// ResearchHandler handles research job submission and status requests.
type ResearchHandler struct {
	queue task.QueueWriter
	store task.StateStore
}

// NewResearchHandler creates a new ResearchHandler.
func NewResearchHandler(queue task.QueueWriter, store task.StateStore) *ResearchHandler {
	return &ResearchHandler{
		queue: queue,
		store: store,
	}
}

// CreateResearch handles POST /api/research requests. A valid query is
// enqueued for asynchronous processing and acknowledged with 202 Accepted;
// the caller polls the status endpoint with the returned task id.
func (h *ResearchHandler) CreateResearch(w http.ResponseWriter, r *http.Request) {
	var req CreateResearchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	query, err := req.ToDomain()
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	taskID, err := h.queue.Enqueue(r.Context(), task.TypeResearch, research.ResearchPayload{Query: *query})
	if err != nil {
		slog.Error("failed to enqueue research task", "error", err)
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateResearchResponse{
		TaskID: taskID.String(),
		Status: string(task.StatusPending),
	})
}

// GetResearch handles GET /api/research/{taskID} requests.
func (h *ResearchHandler) GetResearch(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	state, err := h.store.GetState(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stateToResponse(state))
}

// stateToResponse converts a task.State to the status DTO. The stored
// result is only exposed once the task completed.
func stateToResponse(state *task.State) ResearchStatusResponse {
	resp := ResearchStatusResponse{
		TaskID:      state.TaskID.String(),
		Status:      string(state.Status),
		CreatedAt:   state.CreatedAt,
		UpdatedAt:   state.UpdatedAt,
		CompletedAt: state.CompletedAt,
		FailedAt:    state.FailedAt,
		Error:       state.Error,
	}
	if state.Status == task.StatusCompleted {
		resp.Result = state.Data[task.ResultKey]
	}
	return resp
}
