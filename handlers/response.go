package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/services"
)

const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrSuggestionNotFound),
		errors.Is(err, services.ErrFinancialRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v and runs struct validation on it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// listInput accepts either a comma separated string or a JSON array.
type listInput string

func (l *listInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = listInput(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	*l = listInput(strings.Join(parts, ","))
	return nil
}
