// Package auth handles passwords, login sessions, and flash messages.
package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

const (
	sessionCookie = "arith_session"
	flashCookie   = "arith_flash"

	sessionAge = 7 * 24 * time.Hour
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("not logged in")

type session struct {
	UserID int64
}

// Sessions encodes login sessions and flash messages into signed, encrypted
// cookies.
type Sessions struct {
	codec *securecookie.SecureCookie
	// Secure marks cookies as HTTPS-only.
	Secure bool
}

// NewSessions creates a session codec. A nil key is replaced with a random
// one, which invalidates existing cookies whenever the process restarts.
func NewSessions(hashKey, blockKey []byte) *Sessions {
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if blockKey == nil {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(sessionAge / time.Second))
	return &Sessions{codec: codec}
}

func (s *Sessions) cookie(name, value string, age time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if age < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else if age > 0 {
		c.MaxAge = int(age / time.Second)
		c.Expires = time.Now().Add(age)
	}
	return c
}

// Save logs in a user by setting the session cookie.
func (s *Sessions) Save(w http.ResponseWriter, userID int64) error {
	v, err := s.codec.Encode(sessionCookie, session{UserID: userID})
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	http.SetCookie(w, s.cookie(sessionCookie, v, sessionAge))
	return nil
}

// UserID returns the logged-in user of a request.
func (s *Sessions) UserID(r *http.Request) (int64, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return 0, ErrNoSession
	}
	var v session
	if err := s.codec.Decode(sessionCookie, c.Value, &v); err != nil || v.UserID == 0 {
		return 0, ErrNoSession
	}
	return v.UserID, nil
}

// Clear logs out by expiring the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(sessionCookie, "", -1))
}

// AddFlash queues a message for the next page the client loads. Messages
// already queued on r are kept.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	msgs := append(s.peek(r), msg)
	v, err := s.codec.Encode(flashCookie, msgs)
	if err != nil {
		return errors.Wrap(err, "encoding flash")
	}
	http.SetCookie(w, s.cookie(flashCookie, v, 0))
	return nil
}

// Flashes returns the queued messages and clears them.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	msgs := s.peek(r)
	if _, err := r.Cookie(flashCookie); err == nil {
		http.SetCookie(w, s.cookie(flashCookie, "", -1))
	}
	return msgs
}

func (s *Sessions) peek(r *http.Request) []string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	var msgs []string
	if err := s.codec.Decode(flashCookie, c.Value, &msgs); err != nil {
		return nil
	}
	return msgs
}
