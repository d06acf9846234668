package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxValidateBodySize bounds the JSON body accepted by Validate.
const maxValidateBodySize = 64 << 10

var errNotObject = errors.New("request body is not a JSON object")

// Login handles GET /login. Callers that need no login (gating disabled or
// a valid session cookie) are sent to the application root.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request) {
	if !g.secret.Enabled() || hasValidCookie(g.secret, r) {
		redirect(w, rootPath)
		return
	}
	writeHTML(w, http.StatusOK, g.loginPage)
}

// Validate handles POST /auth/validate. Other methods are forwarded.
func (g *Gate) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.downstream.ServeHTTP(w, r)
		return
	}

	key, err := readKey(w, r)
	if err != nil {
		g.audit.logFailure(AuditValidateMalformed, r, err.Error())
		g.metrics.validation(AuditValidateMalformed)
		writeJSON(w, http.StatusBadRequest, ValidateResponse{Valid: false, Error: msgInvalidRequest})
		return
	}

	if !g.secret.Matches(key) {
		reason := "api key mismatch"
		if !g.secret.Enabled() {
			reason = "no api key configured"
		}
		g.audit.logFailure(AuditValidateFailure, r, reason)
		g.metrics.validation(AuditValidateFailure)
		writeJSON(w, http.StatusUnauthorized, ValidateResponse{Valid: false, Error: msgInvalidKey})
		return
	}

	writeAuthCookie(w, g.secret.Token())
	g.audit.logEvent(AuditValidateSuccess, r)
	g.metrics.validation(AuditValidateSuccess)
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}

// Logout handles POST /auth/logout. It succeeds whatever the caller's
// state; other methods are forwarded.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.downstream.ServeHTTP(w, r)
		return
	}
	clearAuthCookie(w)
	g.audit.logEvent(AuditLogout, r)
	writeJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// readKey extracts the "key" member from the validate request body. Errors
// mean the body was structurally unusable. A missing or non-string key is
// not an error: it yields "" which never matches a configured key.
func readKey(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValidateBodySize))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	text, err := jsonText(body)
	if err != nil {
		return "", err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(text, &obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", errNotObject
		}
		return "", fmt.Errorf("decoding body: %w", err)
	}
	if obj == nil {
		// The literal null.
		return "", errNotObject
	}

	raw, ok := obj["key"]
	if !ok {
		return "", nil
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", nil
	}
	return key, nil
}
