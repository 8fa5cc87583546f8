package server

import (
	"net/http"

	"github.com/marcus/talent-tracker/internal/db"
)

type createAttachmentRequest struct {
	Type       string  `json:"type" validate:"required"`
	FileURL    string  `json:"file_url" validate:"required,url"`
	StageName  *string `json:"stage_name"`
	PromptName *string `json:"prompt_name"`
}

// handleCreateAttachment records an uploaded file for a candidate
func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	var req createAttachmentRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if !db.ValidAttachmentType(req.Type) {
		s.errorResponse(w, http.StatusBadRequest, "Unknown attachment type: "+req.Type)
		return
	}

	candidate, err := s.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	attachment, err := s.db.CreateAttachment(r.Context(), &db.AttachmentInput{
		CandidateID: candidateID,
		Type:        req.Type,
		FileURL:     req.FileURL,
		StageName:   req.StageName,
		PromptName:  req.PromptName,
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, attachment)
}

// handleListAttachments lists a candidate's attachments
func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	attachments, err := s.db.ListAttachments(r.Context(), candidateID)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"attachments": attachments,
		"count":       len(attachments),
	})
}

// handleGetAttachment retrieves an attachment by ID
func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	attachment, err := s.db.GetAttachment(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if attachment == nil {
		s.errorResponse(w, http.StatusNotFound, "Attachment not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, attachment)
}
