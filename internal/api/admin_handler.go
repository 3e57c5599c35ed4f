package api

import (
	"net/http"

	"github.com/dmehra/quizforge/internal/api/shared"
	"github.com/dmehra/quizforge/internal/task"
)

// QueueStats exposes the queue counters the status endpoint reports.
type QueueStats interface {
	// Len is the number of queued tasks waiting for a worker
	Len() int

	// Live is the number of queued plus running tasks
	Live() int
}

// SessionStats reports how many poll-collection sessions are active.
type SessionStats interface {
	Active() int
}

// CredentialStats reports credential pool availability.
type CredentialStats interface {
	// Size is the total number of configured credentials
	Size() int

	// Available is how many are currently outside a cooldown
	Available() int
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	QueueDepth           int `json:"queue_depth"`
	LiveTasks            int `json:"live_tasks"`
	RunningTasks         int `json:"running_tasks"`
	CompletedTasks       int `json:"completed_tasks"`
	FailedTasks          int `json:"failed_tasks"`
	CancelledTasks       int `json:"cancelled_tasks"`
	ActivePollSessions   int `json:"active_poll_sessions"`
	CredentialsTotal     int `json:"credentials_total"`
	CredentialsAvailable int `json:"credentials_available"`
}

// AdminHandler serves the operational endpoints.
type AdminHandler struct {
	queue       QueueStats
	statuses    task.StatusStore
	sessions    SessionStats
	credentials CredentialStats
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	queue QueueStats,
	statuses task.StatusStore,
	sessions SessionStats,
	credentials CredentialStats,
) *AdminHandler {
	return &AdminHandler{
		queue:       queue,
		statuses:    statuses,
		sessions:    sessions,
		credentials: credentials,
	}
}

// Health handles GET /health requests.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// Status handles GET /status requests.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		QueueDepth:           h.queue.Len(),
		LiveTasks:            h.queue.Live(),
		RunningTasks:         h.statuses.CountByStatus(task.TaskStatusRunning),
		CompletedTasks:       h.statuses.CountByStatus(task.TaskStatusCompleted),
		FailedTasks:          h.statuses.CountByStatus(task.TaskStatusFailed),
		CancelledTasks:       h.statuses.CountByStatus(task.TaskStatusCancelled),
		ActivePollSessions:   h.sessions.Active(),
		CredentialsTotal:     h.credentials.Size(),
		CredentialsAvailable: h.credentials.Available(),
	})
}
