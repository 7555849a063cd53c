package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/services"
	"ideahub/microservices/projects-service/store"
)

type AnalyticsHandler struct {
	service *services.AnalyticsService
}

func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type analyticsResponse struct {
	models.Analytics
	Summary models.Summary `json:"summary"`
}

// GetAnalytics returns the site counters together with the project summary.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	counters, err := h.service.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{Analytics: counters, Summary: summary})
}

func (h *AnalyticsHandler) Folders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.service.Folders(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Track(r.Context(), mux.Vars(r)["metric"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type HealthHandler struct {
	store store.DocumentStore
}

func NewHealthHandler(s store.DocumentStore) *HealthHandler {
	return &HealthHandler{store: s}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
