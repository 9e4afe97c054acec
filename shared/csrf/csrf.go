// Package csrf implements double-submit cookie protection for requests
// authenticated by cookie.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/itchan-dev/forum/shared/logger"
)

const (
	TokenLength = 32 // bytes
	CookieName  = "csrf_token"
	HeaderName  = "X-CSRF-Token"
)

// GenerateToken creates a cryptographically secure random token
func GenerateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// ValidateToken compares the cookie token with the header token
func ValidateToken(cookieToken, headerToken string) bool {
	if cookieToken == "" || headerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) == 1
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Protect hands out a csrf cookie to clients that lack one and rejects unsafe
// requests that carry sessionCookie without a matching X-CSRF-Token header.
// Requests authenticated by header only are not affected.
func Protect(sessionCookie string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if c, err := r.Cookie(CookieName); err == nil {
				cookieToken = c.Value
			} else {
				token, err := GenerateToken()
				if err != nil {
					logger.Log.Error("can't generate csrf token", "component", "csrf", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}

			if !safeMethod(r.Method) {
				if _, err := r.Cookie(sessionCookie); err == nil && !ValidateToken(cookieToken, r.Header.Get(HeaderName)) {
					http.Error(w, "CSRF token mismatch", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
