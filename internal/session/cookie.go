// Package session owns the session cookie attributes. Issuing and clearing
// go through the same Cookie value so browsers match them up.
package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Cookie struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	now    func() time.Time
}

func NewCookie(name, domain string, secure bool) *Cookie {
	return &Cookie{Name: name, Path: "/", Domain: domain, Secure: secure, now: time.Now}
}

func (ck *Cookie) build(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     ck.Name,
		Value:    value,
		Path:     ck.Path,
		Domain:   ck.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   ck.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// Set writes the session token, expiring with the token itself.
func (ck *Cookie) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(ck.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(c.Writer, ck.build(value, maxAge, expiresAt.UTC()))
}

func (ck *Cookie) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, ck.build("", -1, time.Unix(0, 0).UTC()))
}

func (ck *Cookie) Read(c *gin.Context) (string, bool) {
	value, err := c.Cookie(ck.Name)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}
