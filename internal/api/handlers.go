package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/types"
)

// QueueStatus pairs a queue name with its live counters
type QueueStatus struct {
	Name  types.QueueName `json:"name"`
	Stats queue.Stats     `json:"stats"`
}

// queueFromRequest resolves the {name} path variable against the configured
// queues
func (s *Server) queueFromRequest(r *http.Request) (types.QueueName, bool) {
	name := types.QueueName(mux.Vars(r)["name"])
	for _, known := range s.queueNames {
		if name == known {
			return name, true
		}
	}
	return "", false
}

// handleListQueues returns the pending/processing/dead-letter counts for
// every configured queue
func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	statuses := make([]QueueStatus, 0, len(s.queueNames))
	for _, name := range s.queueNames {
		stats, err := s.queues.Stats(r.Context(), name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to read queue stats", nil)
			return
		}
		statuses = append(statuses, QueueStatus{Name: name, Stats: *stats})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"queues": statuses})
}

// handleListDeadLetter returns the dead-letter entries for one queue,
// indexed by position
func (s *Server) handleListDeadLetter(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown queue", nil)
		return
	}

	jobs, err := s.queues.DeadLetterJobs(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list dead-letter jobs", nil)
		return
	}

	type indexedJob struct {
		Index int         `json:"index"`
		Job   *models.Job `json:"job"`
	}
	indexed := make([]indexedJob, 0, len(jobs))
	for i, job := range jobs {
		indexed = append(indexed, indexedJob{Index: i, Job: job})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue": name,
		"jobs":  indexed,
	})
}

// handleRetryDeadLetter moves one dead-letter entry back to the pending
// list
func (s *Server) handleRetryDeadLetter(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown queue", nil)
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Index must be a non-negative integer", nil)
		return
	}

	retried, err := s.queues.RetryDeadLetter(r.Context(), name, index)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to retry dead-letter job", nil)
		return
	}
	if !retried {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "No dead-letter job at that index", map[string]interface{}{
			"index": index,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue":   name,
		"index":   index,
		"retried": true,
	})
}

// handleClearDeadLetter deletes every dead-letter entry for one queue
func (s *Server) handleClearDeadLetter(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown queue", nil)
		return
	}

	deleted, err := s.queues.ClearDeadLetter(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to clear dead-letter queue", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue":   name,
		"deleted": deleted,
	})
}

// handleListSyncRuns returns recent reconciliation audit records
func (s *Server) handleListSyncRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Sync run reporting is not configured", nil)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 1000 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Limit must be between 1 and 1000", nil)
			return
		}
		limit = parsed
	}

	runs, err := s.runs.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list sync runs", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
