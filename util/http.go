package util

import (
	"encoding/json"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

// HTTPClient returns the shared HTTP client for outbound requests
func HTTPClient() *http.Client {
	return httpClient
}

// HTTPErr is an error carrying an HTTP status code from an upstream service
type HTTPErr struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e HTTPErr) Error() string {
	return e.Message
}

// HTTPError logs the failure and writes a JSON error body with the
// given status to the client
func HTTPError(r *http.Request, w http.ResponseWriter, context LogContext, message string, status int) {
	LogAudit(context, LogAuditInput{
		Actor:    "biomass-broker",
		Action:   r.Method + " response",
		Actee:    r.URL.String(),
		Message:  message,
		Severity: WARN,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
