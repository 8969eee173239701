package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/logging"
	"github.com/go-chi/chi/v5"
)

// StartImportResponse is returned when an import has been accepted.
type StartImportResponse struct {
	RunID   string `json:"runId"`
	Dataset string `json:"dataset"`
	Status  string `json:"status"`
	Events  string `json:"events"`
	Result  string `json:"result"`
}

// handleHealth reports liveness and import capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": core.Count(),
		"imports":  s.service.LimiterStatus(),
	})
}

// handleListDatasets returns every registered dataset and its targets.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListDatasets())
}

// handleStartImport starts an import of a dataset. The optional "document"
// query parameter overrides the dataset's default document.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	document := r.URL.Query().Get("document")

	runID, err := s.service.StartImport(r.Context(), key, document)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("import accepted", "run_id", runID, "dataset", key)

	base := "/api/imports/" + runID
	w.Header().Set("Location", base)
	writeJSON(w, http.StatusAccepted, StartImportResponse{
		RunID:   runID,
		Dataset: key,
		Status:  core.StateRunning.String(),
		Events:  base + "/events",
		Result:  base + "/result",
	})
}

// handleImportProgress returns the current progress snapshot.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.GetImportProgress(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleImportEvents streams progress via Server-Sent Events.
// Supports resumption via the lastEventId query parameter or the
// Last-Event-ID header; the event ID is the progress percentage.
func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if id, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = id
		}
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	last := core.Progress{}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed: the import completed or aborted.
				if final, err := s.service.GetImportProgress(runID); err == nil {
					last = final
				}
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				rc.Flush()
				return
			}
			last = progress

			eventID := progress.Percent()
			if eventID <= lastEventID && !progress.State.Done() {
				continue
			}
			lastEventID = eventID

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			if err := rc.Flush(); err != nil {
				logging.FromContext(r.Context()).Warn("sse flush failed", "run_id", runID, "error", err)
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// handleAbortImport requests cooperative cancellation of a running import.
func (s *Server) handleAbortImport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if err := s.service.AbortImport(runID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("import abort requested", "run_id", runID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "aborting"})
}

// handleImportResult returns the final result of an import. While the
// import runs it answers 202 with the current progress, unless wait=true
// asks it to block until the import finishes.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var (
		result *core.ImportResult
		err    error
	)
	if r.URL.Query().Get("wait") == "true" {
		result, err = s.service.GetImportResult(r.Context(), runID)
	} else {
		result, err = s.service.PollImportResult(runID)
	}
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if result == nil {
		progress, err := s.service.GetImportProgress(runID)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		writeJSON(w, http.StatusAccepted, progress)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
