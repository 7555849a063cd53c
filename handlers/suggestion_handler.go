package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/services"
)

type SuggestionHandler struct {
	service *services.SuggestionService
}

func NewSuggestionHandler(service *services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

type suggestionRequest struct {
	ProjectSuggestedName string `json:"projectSuggestedName" validate:"required"`
	IdeaDescription      string `json:"ideaDescription" validate:"required"`
	SuggesterName        string `json:"suggesterName" validate:"required"`
	WhatsappPhoneNumber  string `json:"whatsappPhoneNumber" validate:"omitempty,e164"`
	WantToWork           bool   `json:"wantToWork"`
	IsPublic             *bool  `json:"isPublic"`
}

type voteRequest struct {
	Type string `json:"type" validate:"required,oneof=up down"`
}

type suggestionCommentRequest struct {
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.ListPublic(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *SuggestionHandler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	suggestion, err := h.service.CreateSuggestion(r.Context(), services.SuggestionForm{
		ProjectSuggestedName: req.ProjectSuggestedName,
		IdeaDescription:      req.IdeaDescription,
		SuggesterName:        req.SuggesterName,
		WhatsappPhoneNumber:  req.WhatsappPhoneNumber,
		WantToWork:           req.WantToWork,
		IsPublic:             req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, suggestion)
}

func (h *SuggestionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	suggestion, err := h.service.Vote(r.Context(), mux.Vars(r)["id"], models.VoteType(req.Type))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (h *SuggestionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req suggestionCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.service.AddComment(r.Context(), mux.Vars(r)["id"], req.Author, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
