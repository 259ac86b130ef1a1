// Package session issues and revokes the signed identity cookie,
// which tells the front door which team a caller belongs to.
//
// The cookie value is a JWS (HS256) whose subject is the team's resource name ("t-<team>").
// Routing components forward by the raw value; only this package parses it.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/playground/pkg/team"
)

const issuer = "playground"

// MinKeyLength is the shortest signing key accepted, in bytes.
const MinKeyLength = 32

var ErrInvalidSession = errors.New("invalid session")

type Config struct {
	// name of the cookie
	CookieName string

	// send cookie over TLS only
	Secure bool

	// HMAC key to sign session tokens
	SigningKey []byte

	// lifetime of a session. 0 means "until the browser is closed";
	// the token itself has no expiry then.
	TTL time.Duration
}

type Issuer struct {
	conf Config
	now  func() time.Time
}

func NewIssuer(conf Config) (*Issuer, error) {
	if conf.CookieName == "" {
		return nil, errors.New("session: cookie name is empty")
	}
	if len(conf.SigningKey) < MinKeyLength {
		return nil, fmt.Errorf("session: signing key should be %d bytes or longer", MinKeyLength)
	}
	if conf.TTL < 0 {
		return nil, errors.New("session: ttl should not be negative")
	}
	return &Issuer{conf: conf, now: time.Now}, nil
}

// CookieName is the name of session cookies.
func (i *Issuer) CookieName() string {
	return i.conf.CookieName
}

// Issue creates a session cookie binding the caller to team.
func (i *Issuer) Issue(teamName string) (*http.Cookie, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  team.ResourceName(teamName),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.conf.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.conf.TTL))
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.conf.SigningKey)
	if err != nil {
		return nil, err
	}

	c := i.base()
	c.Value = tok
	if i.conf.TTL > 0 {
		c.Expires = now.Add(i.conf.TTL)
		c.MaxAge = int(i.conf.TTL / time.Second)
	}
	return c, nil
}

// Revoke creates a cookie which makes clients drop their session.
func (i *Issuer) Revoke() *http.Cookie {
	c := i.base()
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	return c
}

// Verify checks a session cookie value and returns the resource name it is bound to.
//
// The error wraps ErrInvalidSession when the value is not a valid session.
func (i *Issuer) Verify(value string) (string, error) {
	claims := new(jwt.RegisteredClaims)
	_, err := jwt.ParseWithClaims(
		value, claims,
		func(*jwt.Token) (any, error) { return i.conf.SigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidSession)
	}
	return claims.Subject, nil
}

func (i *Issuer) base() *http.Cookie {
	return &http.Cookie{
		Name:     i.conf.CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   i.conf.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
