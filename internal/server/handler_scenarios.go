package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/schedsim/pkg/model"
)

type createScenarioRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Processes     []model.ProcessSpec `json:"processes"`
	DefaultPolicy string              `json:"default_policy,omitempty"`
	Quantum       int                 `json:"quantum,omitempty"`
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return
	}

	var fieldErrs []model.FieldError
	if req.Name == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "name", Message: "name is required"})
	}
	policy := model.PolicyFCFS
	if req.DefaultPolicy != "" {
		p, err := model.ParsePolicy(req.DefaultPolicy)
		if err != nil {
			fieldErrs = append(fieldErrs, model.FieldError{Field: "default_policy", Message: err.Error()})
		} else {
			policy = p
		}
	}
	if req.Quantum < 0 {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "quantum", Message: "quantum must be positive"})
	}
	fieldErrs = append(fieldErrs, model.ValidateSpecs(req.Processes)...)
	if len(fieldErrs) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid scenario", fieldErrs...))
		return
	}

	now := time.Now().UTC()
	scn := &model.Scenario{
		ID:            "scn_" + uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		Processes:     req.Processes,
		DefaultPolicy: policy,
		Quantum:       req.Quantum,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateScenario(r.Context(), scn); err != nil {
		s.logger.Error("create scenario failed", "error", err, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to store scenario"))
		return
	}

	respondCreated(w, reqID, scn)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptionsFromQuery(r)

	scenarios, total, err := s.store.ListScenarios(r.Context(), opts)
	if err != nil {
		s.logger.Error("list scenarios failed", "error", err, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to list scenarios"))
		return
	}

	respondList(w, reqID, scenarios, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(scenarios) < total,
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	scn, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		s.logger.Error("get scenario failed", "error", err, "scenario_id", id, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to load scenario"))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound,
			model.NewNotFoundError("scenario", id))
		return
	}

	respondOK(w, reqID, scn)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	scn, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		s.logger.Error("get scenario failed", "error", err, "scenario_id", id, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to load scenario"))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound,
			model.NewNotFoundError("scenario", id))
		return
	}

	if err := s.store.DeleteScenario(r.Context(), id); err != nil {
		s.logger.Error("delete scenario failed", "error", err, "scenario_id", id, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError,
			model.NewInternalError("failed to delete scenario"))
		return
	}

	respondOK(w, reqID, map[string]string{"id": id, "deleted": "true"})
}

// listOptionsFromQuery parses limit/offset/state query parameters.
func listOptionsFromQuery(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	opts.State = r.URL.Query().Get("state")
	opts.Clamp()
	return opts
}
