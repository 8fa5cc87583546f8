package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marcus/talent-tracker/internal/db"
)

// handleTriggerAttachment creates the pending jobs an attachment implies
// without running them
func (s *Server) handleTriggerAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	jobs, err := s.orch.TriggerAttachment(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleProcessAttachment triggers and runs an attachment's jobs to
// completion, returning their final states
func (s *Server) handleProcessAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	jobs, err := s.orch.ProcessAttachment(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleListAttachmentJobs lists the jobs for an attachment
func (s *Server) handleListAttachmentJobs(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	jobs, err := s.db.ListJobs(r.Context(), db.JobFilter{AttachmentID: &id})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleListJobs lists jobs matching optional filters
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := db.JobFilter{
		Status: r.URL.Query().Get("status"),
		Kind:   r.URL.Query().Get("kind"),
		Limit:  parseQueryInt(r, "limit", 100, 500),
	}

	if candidateStr := r.URL.Query().Get("candidate_id"); candidateStr != "" {
		candidateID, err := uuid.Parse(candidateStr)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid candidate_id")
			return
		}
		filter.CandidateID = &candidateID
	}

	jobs, err := s.db.ListJobs(r.Context(), filter)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleListStaleJobs lists running jobs past the staleness threshold
func (s *Server) handleListStaleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.orch.StaleJobs(r.Context())
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleGetJob retrieves a job by ID
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	job, err := s.db.GetJob(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, job)
}

// handleRunJob runs a pending job to a terminal status
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	job, err := s.orch.RunJob(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, job)
}

// handleRerunJob supersedes a settled job and queues a fresh one
func (s *Server) handleRerunJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	job, err := s.orch.RerunJob(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, job)
}
