package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"ideahub/microservices/projects-service/middleware"
)

type Handlers struct {
	Projects    *ProjectHandler
	Suggestions *SuggestionHandler
	Admin       *AdminHandler
	Analytics   *AnalyticsHandler
	Health      *HealthHandler
	// Blobs is set only when uploads are kept in process.
	Blobs *BlobHandler
}

// NewRouter registers every route. Admin routes require a session verified
// by verifier.
func NewRouter(h Handlers, verifier middleware.SessionVerifier, corsOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)
	admin := middleware.AdminAuth(verifier)

	r.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)
	if h.Blobs != nil {
		r.HandleFunc("/blobs/{key:.+}", h.Blobs.GetObject).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/admin/login", h.Admin.Login).Methods(http.MethodPost)
	api.Handle("/admin/logout", admin(http.HandlerFunc(h.Admin.Logout))).Methods(http.MethodPost)
	api.Handle("/admin/session", admin(http.HandlerFunc(h.Admin.Session))).Methods(http.MethodGet)

	api.HandleFunc("/projects", h.Projects.ListProjects).Methods(http.MethodGet)
	api.Handle("/projects", admin(http.HandlerFunc(h.Projects.CreateProject))).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", h.Projects.GetProject).Methods(http.MethodGet)
	api.Handle("/projects/{id}", admin(http.HandlerFunc(h.Projects.UpdateProject))).Methods(http.MethodPut)
	api.Handle("/projects/{id}", admin(http.HandlerFunc(h.Projects.DeleteProject))).Methods(http.MethodDelete)
	api.Handle("/projects/{id}/delete-request", admin(http.HandlerFunc(h.Projects.RequestDelete))).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/comments", h.Projects.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/ideas", h.Projects.AddSuggestedIdea).Methods(http.MethodPost)
	api.Handle("/projects/{id}/financials", admin(http.HandlerFunc(h.Projects.AddFinancialRecord))).Methods(http.MethodPost)
	api.Handle("/projects/{id}/financials/{recordId}", admin(http.HandlerFunc(h.Projects.RemoveFinancialRecord))).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/team", h.Projects.TeamOwnership).Methods(http.MethodGet)
	api.Handle("/uploads", admin(http.HandlerFunc(h.Projects.UploadImage))).Methods(http.MethodPost)

	api.HandleFunc("/suggestions", h.Suggestions.ListSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", h.Suggestions.CreateSuggestion).Methods(http.MethodPost)
	api.HandleFunc("/suggestions/{id}/vote", h.Suggestions.Vote).Methods(http.MethodPost)
	api.HandleFunc("/suggestions/{id}/comments", h.Suggestions.AddComment).Methods(http.MethodPost)

	api.Handle("/analytics", admin(http.HandlerFunc(h.Analytics.GetAnalytics))).Methods(http.MethodGet)
	api.HandleFunc("/analytics/folders", h.Analytics.Folders).Methods(http.MethodGet)
	api.HandleFunc("/analytics/track/{metric}", h.Analytics.Track).Methods(http.MethodPost)

	return middleware.CORS(corsOrigins)(r)
}
