package authhttp

import (
	"net/http"
	"time"

	"github.com/csps/portal/internal/rbac"
)

// RefreshCookie is the cookie carrying the opaque refresh token.
const RefreshCookie = "refreshToken"

// CookieConfig controls the attributes of auth cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (c CookieConfig) build(name, value string, maxAge time.Duration, sameSite http.SameSite) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
		cookie.Expires = time.Now().Add(maxAge)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if sameSite == http.SameSiteNoneMode {
		cookie.Secure = true
	}
	return cookie
}

// crossSite builds cookies used by login and logout, which are called from other origins.
func (c CookieConfig) crossSite(name, value string, maxAge time.Duration) *http.Cookie {
	return c.build(name, value, maxAge, http.SameSiteNoneMode)
}

func (c CookieConfig) strict(name, value string, maxAge time.Duration) *http.Cookie {
	return c.build(name, value, maxAge, http.SameSiteStrictMode)
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, c.crossSite(rbac.AccessCookie, "", 0))
	http.SetCookie(w, c.crossSite(RefreshCookie, "", 0))
}
