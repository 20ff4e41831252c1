package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GetSession returns the signed-in user, or null.
func (s *Server) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": formatUser(currentUser(c))})
}

// SignIn checks the credentials and starts a session.
func (s *Server) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := s.store.GetUserByUsername(req.Username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.respondError(c, err)
		return
	}
	var hash string
	if user != nil {
		hash = user.PasswordHash
	}
	err = auth.CheckPassword(hash, req.Password)
	if err != nil && !errors.Is(err, auth.ErrInvalidCredentials) {
		s.respondError(c, err)
		return
	}
	if err != nil {
		s.logger.Warn("failed sign-in", "username", req.Username, "client_ip", c.ClientIP())
		abortWithMessage(c, http.StatusUnauthorized, "Incorrect username or password.")
		return
	}

	if err := s.startSession(c, user); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "You have signed in successfully.",
		"user":    formatUser(user),
	})
}

// SignOut revokes the current session.
func (s *Server) SignOut(c *gin.Context) {
	if session := currentSession(c); session != nil {
		if err := s.store.DeleteSession(session.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, err)
			return
		}
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "You have been signed out successfully."})
}
