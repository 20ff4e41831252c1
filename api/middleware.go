package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tfkr-ae/fritter/domain"
	"github.com/tfkr-ae/fritter/logging"
)

const (
	sessionCookie = "fritter_session"
	userKey       = "fritter.user"
	sessionKey    = "fritter.session"
)

// currentUser returns the signed-in user, or nil.
func currentUser(c *gin.Context) *domain.User {
	if value, ok := c.Get(userKey); ok {
		return value.(*domain.User)
	}
	return nil
}

func currentSession(c *gin.Context) *domain.Session {
	if value, ok := c.Get(sessionKey); ok {
		return value.(*domain.Session)
	}
	return nil
}

// loadSession resolves the session cookie into the signed-in user. Invalid,
// revoked or expired sessions clear the cookie and continue signed out.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sessionID, userID, err := s.tokens.Parse(token)
		if err != nil {
			s.clearSessionCookie(c)
			c.Next()
			return
		}

		session, err := s.store.GetSession(sessionID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, err)
			return
		}
		if session == nil || session.UserID != userID {
			s.clearSessionCookie(c)
			c.Next()
			return
		}

		user, err := s.store.GetUserByID(userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.clearSessionCookie(c)
				c.Next()
				return
			}
			s.respondError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Set(sessionKey, session)
		c.Next()
	}
}

func requireSignedIn(c *gin.Context) {
	if currentUser(c) == nil {
		abortWithMessage(c, http.StatusForbidden, "You must be signed in to complete this action.")
		return
	}
	c.Next()
}

func requireSignedOut(c *gin.Context) {
	if currentUser(c) != nil {
		abortWithMessage(c, http.StatusForbidden, "You are already signed in.")
		return
	}
	c.Next()
}

// startSession creates a session for user and sets the session cookie.
func (s *Server) startSession(c *gin.Context, user *domain.User) error {
	session, err := s.store.CreateSession(user.ID, s.opts.SessionTTL)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(session)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.opts.SessionTTL.Seconds()), "/", "", s.opts.SecureCookies, true)
	c.Set(userKey, user)
	c.Set(sessionKey, session)
	return nil
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}

// logRequests writes one structured record per request.
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user := currentUser(c); user != nil {
			attrs = append(attrs, logging.UserIDKey, user.ID.String())
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "handled request", attrs...)
	}
}

// instrument records request metrics keyed by the matched route pattern.
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.opts.Metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
