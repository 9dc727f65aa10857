package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/schedsim/pkg/model"
)

// handleSSERun streams run updates via Server-Sent Events. Live runs are
// polled from the driver, finished runs from the store.
// GET /api/v1/sse/runs/{id}
func (s *Server) handleSSERun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reqID := RequestIDFromContext(r.Context())

	run, err := s.currentRun(r, id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Send initial state.
	if err := sendSSEEvent(w, flusher, "init", run); err != nil {
		s.logger.Debug("sse client disconnected", "id", id, "error", err)
		return
	}
	if run.State.IsTerminal() {
		sendSSEEvent(w, flusher, "complete", run)
		return
	}

	// Poll for updates until the run is terminal or the client disconnects.
	// Simulation ticks can be sub-second, so poll faster than the submission
	// stream would.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastClock := run.Clock
	lastState := run.State

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			run, err = s.currentRun(r, id)
			if err != nil {
				s.logger.Error("sse fetch error", "id", id, "error", err)
				continue
			}
			if run == nil {
				return
			}

			// Send update on every clock advance or state change.
			if run.Clock != lastClock || run.State != lastState {
				if err := sendSSEEvent(w, flusher, "update", run); err != nil {
					s.logger.Debug("sse client disconnected", "id", id)
					return
				}
				lastClock = run.Clock
				lastState = run.State
			} else {
				// Send heartbeat.
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
			}

			// Stop streaming once the run is terminal.
			if run.State.IsTerminal() {
				sendSSEEvent(w, flusher, "complete", run)
				return
			}
		}
	}
}

// currentRun returns the freshest view of a run: driver first, store second.
func (s *Server) currentRun(r *http.Request, id string) (*model.Run, error) {
	if d, ok := s.drivers.Get(id); ok {
		return d.RunRecord(), nil
	}
	return s.store.GetRun(r.Context(), id)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
