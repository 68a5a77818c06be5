package web

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/logging"
)

// SessionName is the name of the signed session cookie.
const SessionName = "govfunds-session"

const sessionKeyID = "sid"

// Flash categories, matching the notice styles in the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Sessions wraps the cookie store. The cookie carries only the server-side
// session id and pending flashes.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions derives the signing key from secret. An empty secret gets a
// random key, so cookies do not survive a restart.
func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	var key [32]byte
	if secret == "" {
		_, _ = rand.Read(key[:])
	} else {
		key = sha256.Sum256([]byte(secret))
	}

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) get(c *gin.Context) *sessions.Session {
	// A cookie signed with another key yields a fresh session and an error we can ignore.
	sess, _ := s.store.Get(c.Request, SessionName)
	return sess
}

func (s *Sessions) save(c *gin.Context, sess *sessions.Session) {
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logging.FromContext(c.Request.Context()).Warn("failed to save session cookie", zap.Error(err))
	}
}

// AddFlash queues a notice for the next page.
func (s *Sessions) AddFlash(c *gin.Context, category, message string) {
	sess := s.get(c)
	sess.AddFlash(Flash{Category: category, Message: message})
	s.save(c, sess)
}

// Flashes pops every queued notice.
func (s *Sessions) Flashes(c *gin.Context) []Flash {
	sess := s.get(c)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	s.save(c, sess)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// SessionID returns the server-side session id stored in the cookie.
func (s *Sessions) SessionID(c *gin.Context) string {
	id, _ := s.get(c).Values[sessionKeyID].(string)
	return id
}

// SetSessionID stores id in the cookie.
func (s *Sessions) SetSessionID(c *gin.Context, id string) {
	sess := s.get(c)
	sess.Values[sessionKeyID] = id
	s.save(c, sess)
}

// ClearSessionID removes the session id, keeping pending flashes.
func (s *Sessions) ClearSessionID(c *gin.Context) {
	sess := s.get(c)
	delete(sess.Values, sessionKeyID)
	s.save(c, sess)
}
