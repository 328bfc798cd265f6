package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/api/shared"
	"github.com/phrazzld/lumen-engine/internal/platform/logger"
	"github.com/phrazzld/lumen-engine/internal/scheduler"
	"github.com/phrazzld/lumen-engine/internal/task"
)

// SchedulerHandler exposes scheduler controls over HTTP.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
	queue     *task.Queue
	logger    *slog.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(s *scheduler.Scheduler, q *task.Queue, logger *slog.Logger) *SchedulerHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SchedulerHandler")
	}
	return &SchedulerHandler{
		scheduler: s,
		queue:     q,
		logger:    logger.With(slog.String("component", "scheduler_handler")),
	}
}

// AddTask handles POST /tasks requests.
func (h *SchedulerHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	priority := task.Priority(req.Priority)
	if req.Priority == "" {
		priority = task.PriorityNormal
	}
	if !priority.Valid() {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown priority")
		return
	}

	var id uuid.UUID
	switch task.Type(req.Type) {
	case task.TypePhotoAnalysis:
		id = h.scheduler.AddPhotoAnalysisTask(req.Photos, priority)
	case task.TypeFaceDetection:
		id = h.scheduler.AddFaceDetectionTask(req.Photos, priority)
	case task.TypeClustering:
		id = h.scheduler.AddClusteringTask(req.Photos, priority)
	case task.TypeCuration:
		id = h.scheduler.AddCurationTask(req.Photos, priority)
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown task type")
		return
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger)
	log.Debug("task enqueued via api",
		slog.String("task_id", id.String()),
		slog.String("task_type", req.Type))
	shared.RespondWithJSON(w, r, http.StatusCreated, AddTaskResponse{TaskID: id.String()})
}

// ListTasks handles GET /tasks requests.
func (h *SchedulerHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.queue.Tasks())
}

// GetTask handles GET /tasks/{id} requests.
func (h *SchedulerHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id")
		return
	}
	t, ok := h.queue.Get(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, t)
}

// CancelTask handles POST /tasks/{id}/cancel requests.
func (h *SchedulerHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id")
		return
	}
	cancelled := h.scheduler.CancelTask(id)
	status := http.StatusOK
	if !cancelled {
		status = http.StatusNotFound
	}
	shared.RespondWithJSON(w, r, status, CancelTaskResponse{Cancelled: cancelled})
}

// GetState handles GET /state requests.
func (h *SchedulerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.scheduler.State())
}

// GetStats handles GET /stats requests.
func (h *SchedulerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.scheduler.Stats())
}

// PauseProcessing handles POST /processing/pause requests.
func (h *SchedulerHandler) PauseProcessing(w http.ResponseWriter, r *http.Request) {
	h.scheduler.PauseProcessing()
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "paused"})
}

// ResumeProcessing handles POST /processing/resume requests.
func (h *SchedulerHandler) ResumeProcessing(w http.ResponseWriter, r *http.Request) {
	h.scheduler.ResumeProcessing()
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "resumed"})
}

// UpdateSettings handles PATCH /settings requests.
func (h *SchedulerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch scheduler.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.scheduler.UpdateSettings(patch)
	shared.RespondWithJSON(w, r, http.StatusOK, h.scheduler.Settings())
}

// ClearQueue handles DELETE /queue requests.
func (h *SchedulerHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	h.scheduler.ClearQueue()
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "cleared"})
}
