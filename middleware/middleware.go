package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/services"
	"ideahub/microservices/projects-service/utils"
)

type contextKey string

const claimsKey contextKey = "adminClaims"

// SessionVerifier checks an admin session token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*utils.Claims, error)
}

// AdminAuth rejects requests without a valid admin bearer token and stores
// the verified claims in the request context.
func AdminAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: ADMIN_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				writeError(w, http.StatusUnauthorized, "authorization header missing")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader {
				logging.Logger.Warnf("Event ID: ADMIN_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing for request to %s %s", r.Method, r.URL.Path)
				writeError(w, http.StatusUnauthorized, "bearer token required")
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenStr)
			if err != nil && !errors.Is(err, services.ErrInvalidSession) {
				logging.Logger.Errorf("Event ID: ADMIN_AUTH_VERIFY_FAILED, Description: Could not verify session for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if err != nil {
				logging.Logger.Warnf("Event ID: ADMIN_AUTH_INVALID_TOKEN, Description: Invalid session for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeError(w, http.StatusUnauthorized, "invalid or expired admin session")
				return
			}

			logging.Logger.Debugf("Event ID: ADMIN_AUTH_SUCCESS, Description: Session %s accepted for %s %s", claims.ID, r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// ClaimsFromContext returns the claims AdminAuth stored, if any.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*utils.Claims)
	return claims, ok
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logging.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		switch {
		case rec.status >= http.StatusInternalServerError:
			entry.Error("Event ID: HTTP_REQUEST, Description: Request failed")
		case rec.status >= http.StatusBadRequest:
			entry.Warn("Event ID: HTTP_REQUEST, Description: Request rejected")
		default:
			entry.Info("Event ID: HTTP_REQUEST, Description: Request served")
		}
	})
}

// CORS allows the configured origins to call the API with an Authorization
// header.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
