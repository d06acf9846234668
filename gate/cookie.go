package gate

import (
	"net/http"
	"time"
)

const (
	// CookieName is the session cookie carrying the derived token.
	CookieName = "fw_auth"
	// CookieMaxAge is how long a browser keeps the session cookie.
	CookieMaxAge = 30 * 24 * time.Hour
)

func writeAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// hasValidCookie reports whether r carries a session cookie equal to the
// token derived from s. A missing or malformed cookie is simply invalid.
func hasValidCookie(s *Secret, r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return s.TokenMatches(cookie.Value)
}
