package server

import (
	"net/http"

	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/db"
)

type createTemplateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// handleCreateTemplate creates a pipeline template
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	template, err := s.db.CreateTemplate(r.Context(), &db.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, template)
}

// handleListTemplates lists all pipeline templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.ListTemplates(r.Context())
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"templates": templates,
		"count":     len(templates),
	})
}

// handleGetTemplate retrieves a template with its stages and prompts
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	tree, err := s.db.LoadTemplateTree(r.Context(), id)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if tree == nil {
		s.errorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, tree)
}

type createStageRequest struct {
	Name               string  `json:"name" validate:"required"`
	DisplayName        string  `json:"display_name"`
	Description        string  `json:"description"`
	SystemInstructions *string `json:"system_instructions"`
	OrderIndex         int     `json:"order_index" validate:"gte=0"`
}

// handleCreateStage adds a stage to a template
func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	templateID, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	var req createStageRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	template, err := s.db.GetTemplate(r.Context(), templateID)
	if err != nil {
		s.handlerError(w, err)
		return
	}
	if template == nil {
		s.errorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	stage, err := s.db.CreateStage(r.Context(), &db.StageInput{
		TemplateID:         templateID,
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		Description:        req.Description,
		SystemInstructions: req.SystemInstructions,
		OrderIndex:         req.OrderIndex,
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, stage)
}

type createPromptRequest struct {
	Name           string   `json:"name" validate:"required"`
	Instructions   string   `json:"instructions" validate:"required"`
	ContextSources []string `json:"context_sources"`
	OutputCategory string   `json:"output_category" validate:"required"`
	OrderIndex     int      `json:"order_index" validate:"gte=0"`
}

// handleCreatePrompt adds a prompt to a stage
func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	stageID, err := pathUUID(r, "id")
	if err != nil {
		s.handlerError(w, err)
		return
	}

	var req createPromptRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if !db.ValidOutputCategory(req.OutputCategory) {
		s.errorResponse(w, http.StatusBadRequest, "Unknown output category: "+req.OutputCategory)
		return
	}
	for _, source := range req.ContextSources {
		if !assembly.KnownSource(source) {
			s.errorResponse(w, http.StatusBadRequest, "Unknown context source: "+source)
			return
		}
	}

	prompt, err := s.db.CreatePrompt(r.Context(), &db.PromptInput{
		StageID:        stageID,
		Name:           req.Name,
		Instructions:   req.Instructions,
		ContextSources: req.ContextSources,
		OutputCategory: req.OutputCategory,
		OrderIndex:     req.OrderIndex,
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, prompt)
}
