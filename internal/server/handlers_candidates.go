package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marcus/talent-tracker/internal/catalog"
	"github.com/marcus/talent-tracker/internal/db"
)

type createCandidateRequest struct {
	Name               string     `json:"name" validate:"required"`
	Email              string     `json:"email" validate:"omitempty,email"`
	PipelineTemplateID *uuid.UUID `json:"pipeline_template_id"`
	PipelineStage      string     `json:"pipeline_stage"`
}

// handleCreateCandidate creates a candidate
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	// A declared starting stage must exist on the declared template.
	if req.PipelineTemplateID != nil && req.PipelineStage != "" {
		snapshot, err := catalog.Load(r.Context(), s.db, *req.PipelineTemplateID)
		if err != nil {
			s.handlerError(w, err)
			return
		}
		if _, err := snapshot.ResolveStage(req.PipelineStage); err != nil {
			s.handlerError(w, err)
			return
		}
	}

	candidate, err := s.db.CreateCandidate(r.Context(), &db.CandidateInput{
		Name:               req.Name,
		Email:              req.Email,
		PipelineTemplateID: req.PipelineTemplateID,
		PipelineStage:      req.PipelineStage,
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, candidate)
}

// handleListCandidates lists candidates
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50, 200)

	candidates, err := s.db.ListCandidates(r.Context(), limit)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// handleGetCandidate retrieves a candidate by ID
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	candidate, err := s.db.GetCandidate(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, candidate)
}

type updateStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// handleUpdateCandidateStage moves a candidate to another stage
func (s *Server) handleUpdateCandidateStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	var req updateStageRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	candidate, err := s.db.GetCandidate(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	if candidate.PipelineTemplateID != nil {
		snapshot, err := catalog.Load(r.Context(), s.db, *candidate.PipelineTemplateID)
		if err != nil {
			s.handlerError(w, err)
			return
		}
		if _, err := snapshot.ResolveStage(req.Stage); err != nil {
			s.handlerError(w, err)
			return
		}
	}

	if err := s.db.UpdateCandidateStage(r.Context(), id, req.Stage); err != nil {
		s.handlerError(w, err)
		return
	}

	candidate.PipelineStage = req.Stage
	s.jsonResponse(w, http.StatusOK, candidate)
}

// handleGetProfile retrieves a candidate's derived profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	profile, err := s.db.GetProfile(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if profile == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate has no profile")
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGetPreferences retrieves a candidate's derived preferences
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	prefs, err := s.db.GetPreferences(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if prefs == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate has no preferences")
		return
	}

	s.jsonResponse(w, http.StatusOK, prefs)
}

// handleGetStageSummary retrieves a candidate's summary for one stage
func (s *Server) handleGetStageSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}
	stageName := r.PathValue("stage")

	summary, err := s.db.GetStageSummary(r.Context(), id, stageName)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if summary == nil {
		s.errorResponse(w, http.StatusNotFound, "No summary for this stage")
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// handleSummarizeStage runs a stage-summary job for a candidate's stage
func (s *Server) handleSummarizeStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}
	stageName := r.PathValue("stage")

	job, err := s.orch.SummarizeStage(r.Context(), id, stageName)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, job)
}
