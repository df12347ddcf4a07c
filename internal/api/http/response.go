package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// respondError maps a workflow failure to its HTTP status. Preconditions and
// conflicts are both 409; the code tells them apart.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := ErrorResponse{
		Code:    domain.CodeOf(err),
		Message: err.Error(),
		Kind:    string(domain.KindOf(err)),
	}
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		// Store details stay in the log.
		var we *domain.WorkflowError
		if errors.As(err, &we) {
			body.Message = we.Message
		} else {
			body.Message = "internal server error"
		}
	}
	respondJSON(w, status, body)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindPrecondition, domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		if errors.Is(err, domain.ErrUnauthenticated) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case domain.KindDependency:
		return http.StatusServiceUnavailable
	case domain.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
