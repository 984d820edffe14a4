package common

import (
	"encoding/json"
	"net/http"

	"taskboard/internal/platform/logger"
)

type ErrorResponse struct {
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Debug   string       `json:"debug,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message})
}

// RespondWithAppError writes the status and public message for err. When
// debug is set the internal error chain is included as well.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	code := HTTPStatusFromError(err)
	msg, details := PublicMessage(err, code)
	resp := ErrorResponse{Message: msg, Details: details}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if debug {
		resp.Debug = err.Error()
	}
	RespondWithJSON(w, code, resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
