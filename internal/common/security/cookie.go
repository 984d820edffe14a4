package security

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

// CookieTransport carries access tokens in an HTTP-only cookie, falling
// back to an Authorization bearer header for non-browser clients.
type CookieTransport struct {
	Name       string
	MaxAge     time.Duration
	Production bool
}

func NewCookieTransport(name string, maxAge time.Duration, production bool) *CookieTransport {
	return &CookieTransport{Name: name, MaxAge: maxAge, Production: production}
}

func (t *CookieTransport) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     t.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if t.Production {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (t *CookieTransport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, t.cookie(token, int(t.MaxAge/time.Second)))
}

// Extract returns the token from the cookie or, failing that, the bearer
// header.
func (t *CookieTransport) Extract(r *http.Request) (string, bool) {
	if c, err := r.Cookie(t.Name); err == nil && c.Value != "" {
		return c.Value, true
	}
	if token := jwtauth.TokenFromHeader(r); token != "" {
		return token, true
	}
	return "", false
}

func (t *CookieTransport) Clear(w http.ResponseWriter) {
	c := t.cookie("", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}
