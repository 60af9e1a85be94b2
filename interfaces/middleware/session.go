package middleware

import (
	"net/http"
	"time"

	"vault/infrastructure/realtime"
	"vault/usecase"

	"github.com/gin-gonic/gin"
)

const (
	// SessionContextKey holds the *usecase.Session for the request.
	SessionContextKey = "session"
	// SessionCreatedKey is true when the session was created by this request.
	SessionCreatedKey = "session_created"
)

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session resolves the browser's view session from its cookie, creating one
// (and setting the cookie) when it is missing or expired.
func Session(sessions usecase.ISessionUsecase, opts SessionOptions) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, _ := ctx.Cookie(opts.CookieName)
		sess, created := sessions.Acquire(id)

		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(opts.CookieName, sess.ID, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)

		ctx.Set(SessionContextKey, sess)
		ctx.Set(SessionCreatedKey, created)
		ctx.Set(realtime.SessionKey, sess.ID)
		ctx.Next()
	}
}

// CurrentSession returns the session stored by Session.
func CurrentSession(ctx *gin.Context) (*usecase.Session, bool) {
	v, ok := ctx.Get(SessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*usecase.Session)
	return sess, ok && sess != nil
}
