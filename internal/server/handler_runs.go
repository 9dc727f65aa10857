package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/schedsim/internal/driver"
	"github.com/me/schedsim/pkg/model"
)

type createRunRequest struct {
	ScenarioID string `json:"scenario_id"`
	Policy     string `json:"policy,omitempty"`
	Quantum    int    `json:"quantum,omitempty"`
	IntervalMS int    `json:"interval_ms,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return
	}
	if req.ScenarioID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid run request",
				model.FieldError{Field: "scenario_id", Message: "scenario_id is required"}))
		return
	}

	scn, err := s.store.GetScenario(r.Context(), req.ScenarioID)
	if err != nil {
		s.logger.Error("get scenario failed", "error", err, "scenario_id", req.ScenarioID, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to load scenario"))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound,
			model.NewNotFoundError("scenario", req.ScenarioID))
		return
	}

	policy := scn.DefaultPolicy
	if req.Policy != "" {
		policy, err = model.ParsePolicy(req.Policy)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid run request",
					model.FieldError{Field: "policy", Message: err.Error()}))
			return
		}
	}
	if req.IntervalMS < 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid run request",
				model.FieldError{Field: "interval_ms", Message: "interval_ms must be positive"}))
		return
	}

	quantum := req.Quantum
	if quantum <= 0 {
		quantum = scn.Quantum
	}

	procs := make([]*model.Process, len(scn.Processes))
	for i, spec := range scn.Processes {
		procs[i] = model.NewProcess(spec)
	}

	run := &model.Run{
		ID:           "run_" + uuid.New().String(),
		ScenarioID:   scn.ID,
		ScenarioName: scn.Name,
		Policy:       policy,
		State:        model.RunStatePending,
		Quantum:      quantum,
		IntervalMS:   req.IntervalMS,
		Processes:    procs,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateRun(r.Context(), run); err != nil {
		s.logger.Error("create run failed", "error", err, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to store run"))
		return
	}

	// The loop outlives this request; it runs under the server's lifetime
	// context, not the request context.
	if _, err := s.drivers.StartRun(s.runCtx, run, scn.Processes); err != nil {
		s.logger.Error("start run failed", "error", err, "run_id", run.ID, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to start run"))
		return
	}

	s.logger.Info("run created", "run_id", run.ID, "scenario_id", scn.ID, "policy", policy, "request_id", reqID)
	respondCreated(w, reqID, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptionsFromQuery(r)

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		s.logger.Error("list runs failed", "error", err, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to list runs"))
		return
	}

	respondList(w, reqID, runs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(runs) < total,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	// Live runs are served from the driver so the clock and process states
	// reflect the latest tick, not the last persisted record.
	if d, ok := s.drivers.Get(id); ok {
		respondOK(w, reqID, d.RunRecord())
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.logger.Error("get run failed", "error", err, "run_id", id, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to load run"))
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound,
			model.NewNotFoundError("run", id))
		return
	}

	respondOK(w, reqID, run)
}

func (s *Server) handlePauseRun(w http.ResponseWriter, r *http.Request) {
	s.controlRun(w, r, "pause", func(ctx context.Context, d *driver.Driver) error {
		return d.Pause(ctx)
	})
}

func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	s.controlRun(w, r, "resume", func(ctx context.Context, d *driver.Driver) error {
		return d.Resume(ctx)
	})
}

func (s *Server) handleResetRun(w http.ResponseWriter, r *http.Request) {
	s.controlRun(w, r, "reset", func(ctx context.Context, d *driver.Driver) error {
		return d.Reset(ctx)
	})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	s.controlRun(w, r, "cancel", func(ctx context.Context, d *driver.Driver) error {
		return d.Cancel(ctx)
	})
}

// controlRun applies a lifecycle action to a live run. Runs without an active
// driver are either unknown (404) or already terminal (409).
func (s *Server) controlRun(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, *driver.Driver) error) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	d, ok := s.drivers.Get(id)
	if !ok {
		run, err := s.store.GetRun(r.Context(), id)
		if err != nil {
			s.logger.Error("get run failed", "error", err, "run_id", id, "request_id", reqID)
			respondError(w, reqID, http.StatusInternalServerError,
				model.NewInternalError("failed to load run"))
			return
		}
		if run == nil {
			respondError(w, reqID, http.StatusNotFound,
				model.NewNotFoundError("run", id))
			return
		}
		respondError(w, reqID, http.StatusConflict,
			model.NewConflictError("run "+id+" is "+string(run.State)+" and cannot be modified"))
		return
	}

	if err := fn(r.Context(), d); err != nil {
		var transErr *model.InvalidTransitionError
		if errors.As(err, &transErr) {
			respondError(w, reqID, http.StatusConflict,
				model.NewConflictError(transErr.Error()))
			return
		}
		s.logger.Error("run control failed", "action", action, "error", err, "run_id", id, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to "+action+" run"))
		return
	}

	s.logger.Info("run "+action, "run_id", id, "request_id", reqID)
	respondOK(w, reqID, d.RunRecord())
}
