package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/session"
)

const SessionKey = "session"

// SessionMiddleware loads the visitor's session before the handler runs and
// saves it afterwards when the handler changed it. Requests sharing a
// session id run one at a time.
func SessionMiddleware(store session.Store, cfg config.SessionConfig) gin.HandlerFunc {
	locks := session.NewKeyedMutex()

	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var sess *session.Session
		if id, err := c.Cookie(cfg.CookieName); err == nil && id != "" {
			unlock := locks.Lock(id)
			defer unlock()

			sess, err = store.Load(c.Request.Context(), id)
			if err != nil {
				log.Warn("Failed to load session, starting a new one", map[string]interface{}{
					"error": err.Error(),
				})
				sess = nil
			}
		}
		if sess == nil {
			sess = session.New()
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    sess.ID(),
			Path:     "/",
			MaxAge:   int(cfg.TTL.Seconds()),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(SessionKey, sess)

		c.Next()

		if !sess.Modified() {
			return
		}
		if err := store.Save(c.Request.Context(), sess); err != nil {
			log.Error("Failed to save session", err, map[string]interface{}{
				"session_id": sess.ID(),
			})
		}
	}
}

// GetSession returns the request's session, or nil when SessionMiddleware
// is not installed.
func GetSession(c *gin.Context) *session.Session {
	if v, exists := c.Get(SessionKey); exists {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
