package handlers

import (
	"net"
	"net/http"

	"ideahub/microservices/projects-service/middleware"
	"ideahub/microservices/projects-service/services"
)

type AdminHandler struct {
	service *services.AdminService
}

func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

type loginRequest struct {
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

type sessionResponse struct {
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
	ExpiresAt string `json:"expiresAt"`
}

// Login trades the two admin passwords for a session token. Attempts are
// counted per remote address.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.service.Login(r.Context(), clientKey(r), req.Password1, req.Password2)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, services.ErrInvalidSession.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Role:      claims.Role,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(http.TimeFormat),
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
