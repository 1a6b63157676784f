// Package oauth implementa el grant JWT-bearer del token endpoint: una
// tool presenta un client assertion firmado y recibe un access token
// acotado a los scopes de servicio LTI.
package oauth

import (
	"fmt"
	"net/url"
	"strings"
)

// Constantes wire del grant (RFC 7523 / OAuth2 core).
const (
	GrantClientCredentials = "client_credentials"
	AssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	TokenTypeBearer        = "bearer"
)

// Códigos de error RFC 6749 §5.2.
const (
	ErrorInvalidRequest = "invalid_request"
	ErrorInvalidGrant   = "invalid_grant"
	ErrorInvalidScope   = "invalid_scope"
)

// GrantError es un fallo del token endpoint, con el código RFC 6749 y una
// descripción con contexto suficiente para diagnosticar.
type GrantError struct {
	Code        string
	Description string
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("oauth: %s: %s", e.Code, e.Description)
}

func invalidRequest(format string, args ...any) *GrantError {
	return &GrantError{Code: ErrorInvalidRequest, Description: fmt.Sprintf(format, args...)}
}

func invalidGrant(format string, args ...any) *GrantError {
	return &GrantError{Code: ErrorInvalidGrant, Description: fmt.Sprintf(format, args...)}
}

func invalidScope(format string, args ...any) *GrantError {
	return &GrantError{Code: ErrorInvalidScope, Description: fmt.Sprintf(format, args...)}
}

// AccessTokenRequest es el form body del token endpoint ya parseado.
type AccessTokenRequest struct {
	GrantType           string
	ClientAssertion     string
	ClientAssertionType string
	Scopes              []string
}

// RequestFromForm parsea el form body estándar del token endpoint.
func RequestFromForm(form url.Values) AccessTokenRequest {
	return AccessTokenRequest{
		GrantType:           form.Get("grant_type"),
		ClientAssertion:     form.Get("client_assertion"),
		ClientAssertionType: form.Get("client_assertion_type"),
		Scopes:              strings.Fields(form.Get("scope")),
	}
}

// AccessTokenResponse es el JSON de éxito del token endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// AccessToken es el registro persistido de un token emitido.
type AccessToken struct {
	ID             string   `json:"id"`
	RegistrationID string   `json:"registration_id"`
	ClientID       string   `json:"client_id"`
	Scopes         []string `json:"scopes"`
	ExpiresAt      int64    `json:"expires_at"`
}
