package api

import (
	"net/http"
	"time"
)

// Cookie names for the token pair.
const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// setTokenCookie writes one token cookie. HttpOnly always; Secure and
// SameSite follow the configured cookie policy.
func (s *Server) setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secCfg.Cookies.Secure,
		SameSite: parseSameSite(s.secCfg.Cookies.SameSite),
	})
}

// clearTokenCookie expires one token cookie immediately.
func (s *Server) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secCfg.Cookies.Secure,
		SameSite: parseSameSite(s.secCfg.Cookies.SameSite),
	})
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
