package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellolti/internal/oauth"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteError responde un error JSON. El shape coincide con RFC 6749 §5.2,
// que es también el que usan los endpoints OIDC.
func WriteError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error:            code,
		ErrorDescription: desc,
		RequestID:        rid,
	})
}

// WriteGrantError responde un fallo del token endpoint con su código RFC.
func WriteGrantError(w http.ResponseWriter, err error) {
	var ge *oauth.GrantError
	if errors.As(err, &ge) {
		WriteError(w, http.StatusBadRequest, ge.Code, ge.Description)
		return
	}
	WriteError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, err.Error())
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
