package web

import (
	"crypto/rand"
	"crypto/subtle"
	"net/http"
)

const (
	csrfCookieName = "envpush_csrf"
	csrfFormField  = "csrf_token"
)

// csrfToken returns the token bound to this browser, issuing the cookie on
// first use. Every POST form carries it back in csrfFormField.
func csrfToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := rand.Text()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
	return token
}

// validateCSRF reports whether the submitted form token matches the cookie.
// Only form submissions are accepted; the UI posts no scripted requests.
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	submitted := r.PostFormValue(csrfFormField)
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) == 1
}
