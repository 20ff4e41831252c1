package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
	"github.com/tfkr-ae/fritter/logging"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,password"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,username"`
	Password *string `json:"password" binding:"omitempty,password"`
}

type anonymousRequest struct {
	Anonymous *bool `json:"anonymous" binding:"required"`
}

// CreateUser registers an account and signs it in.
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	user, err := s.store.CreateUser(req.Username, hash)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.startSession(c, user); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("user registered", "username", user.Username, logging.UserIDKey, user.ID.String())
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Your account was created successfully. You have been signed in as %s.", user.Username),
		"user":    formatUser(user),
	})
}

// UpdateUser changes the signed-in user's username and/or password.
func (s *Server) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.Username == nil && req.Password == nil {
		abortWithMessage(c, http.StatusBadRequest, "Provide a username or a password to update.")
		return
	}

	var hash string
	if req.Password != nil {
		var err error
		if hash, err = auth.HashPassword(*req.Password); err != nil {
			s.respondError(c, err)
			return
		}
	}

	user := currentUser(c)
	if req.Username != nil && *req.Username != user.Username {
		if err := s.store.UpdateUsername(user.ID, *req.Username); err != nil {
			s.respondError(c, err)
			return
		}
	}
	if req.Password != nil {
		if err := s.store.UpdatePassword(user.ID, hash); err != nil {
			s.respondError(c, err)
			return
		}
	}

	updated, err := s.store.GetUserByID(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Your profile was updated successfully.",
		"user":    formatUser(updated),
	})
}

// DeleteUser removes the signed-in user and everything they own.
func (s *Server) DeleteUser(c *gin.Context) {
	user := currentUser(c)
	if err := s.store.DeleteUser(user.ID); err != nil {
		s.respondError(c, err)
		return
	}
	s.clearSessionCookie(c)

	s.logger.Warn("user deleted", "username", user.Username, logging.UserIDKey, user.ID.String())
	c.JSON(http.StatusOK, gin.H{"message": "Your account has been deleted successfully."})
}

// SetAnonymous switches anonymous posting mode on or off.
func (s *Server) SetAnonymous(c *gin.Context) {
	var req anonymousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	user := currentUser(c)
	if err := s.store.SetAnonymous(user.ID, *req.Anonymous); err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.store.GetUserByID(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	message := "Anonymous mode is off."
	if updated.Anonymous {
		message = "Anonymous mode is on. New freets will be posted anonymously."
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "user": formatUser(updated)})
}

// GetProfile returns the public profile of a user.
func (s *Server) GetProfile(c *gin.Context) {
	user, ok := s.userFromParam(c)
	if !ok {
		return
	}

	followers, err := s.store.ListFollowers(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	following, err := s.store.ListFollowing(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var isFollowing bool
	if viewer := currentUser(c); viewer != nil && viewer.ID != user.ID {
		isFollowing, err = s.store.IsFollowing(viewer.ID, user.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, &profileResponse{
		Username:    user.Username,
		DateJoined:  formatDate(user.DateJoined),
		Followers:   len(followers),
		Following:   len(following),
		IsFollowing: isFollowing,
	})
}

// Follow makes the signed-in user follow :username.
func (s *Server) Follow(c *gin.Context) {
	followee, ok := s.userFromParam(c)
	if !ok {
		return
	}
	if err := s.store.Follow(currentUser(c).ID, followee.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("You are now following %s.", followee.Username)})
}

// Unfollow makes the signed-in user stop following :username.
func (s *Server) Unfollow(c *gin.Context) {
	followee, ok := s.userFromParam(c)
	if !ok {
		return
	}
	if err := s.store.Unfollow(currentUser(c).ID, followee.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("You are no longer following %s.", followee.Username)})
}

// ListFollowers returns the usernames following :username.
func (s *Server) ListFollowers(c *gin.Context) {
	s.listRelated(c, s.store.ListFollowers)
}

// ListFollowing returns the usernames :username follows.
func (s *Server) ListFollowing(c *gin.Context) {
	s.listRelated(c, s.store.ListFollowing)
}

func (s *Server) listRelated(c *gin.Context, list func(userID uuid.UUID) ([]*domain.User, error)) {
	user, ok := s.userFromParam(c)
	if !ok {
		return
	}
	related, err := list(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	usernames := make([]string, 0, len(related))
	for _, u := range related {
		usernames = append(usernames, u.Username)
	}
	c.JSON(http.StatusOK, usernames)
}

// userFromParam loads the user named by the :username path parameter,
// answering 404 itself when there is none.
func (s *Server) userFromParam(c *gin.Context) (*domain.User, bool) {
	username := c.Param("username")
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("User with username %s does not exist.", username))
			return nil, false
		}
		s.respondError(c, err)
		return nil, false
	}
	return user, true
}
