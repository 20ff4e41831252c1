package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

// ListComments returns the comments on :freetId, oldest first.
func (s *Server) ListComments(c *gin.Context) {
	freet, ok := s.freetFromParam(c)
	if !ok {
		return
	}
	comments, err := s.store.ListCommentsByFreet(freet.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	responses, err := s.formatComments(comments, currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// CreateComment adds a comment by the viewer to :freetId.
func (s *Server) CreateComment(c *gin.Context) {
	freet, ok := s.freetFromParam(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	comment := &domain.Comment{
		FreetID:  freet.ID,
		AuthorID: currentUser(c).ID,
		Content:  strings.TrimSpace(req.Content),
	}
	if err := s.store.CreateComment(comment); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondComment(c, http.StatusCreated, "Your comment was created successfully.", comment)
}

// UpdateComment replaces the content of one of the viewer's comments.
func (s *Server) UpdateComment(c *gin.Context) {
	comment, ok := s.ownCommentFromParam(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := s.store.UpdateCommentContent(comment.ID, strings.TrimSpace(req.Content)); err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.store.GetComment(comment.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondComment(c, http.StatusOK, "Your comment was updated successfully.", updated)
}

// DeleteComment removes one of the viewer's comments.
func (s *Server) DeleteComment(c *gin.Context) {
	comment, ok := s.ownCommentFromParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteComment(comment.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your comment was deleted successfully."})
}

// ReactToComment returns a handler pressing the action button on a comment.
func (s *Server) ReactToComment(action domain.Reaction) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, ok := s.commentFromParam(c)
		if !ok {
			return
		}
		if _, ok := s.react(c, domain.TargetComment, comment.ID, action); !ok {
			return
		}
		updated, err := s.store.GetComment(comment.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		s.respondComment(c, http.StatusOK, "", updated)
	}
}

func (s *Server) respondComment(c *gin.Context, status int, message string, comment *domain.Comment) {
	response, err := s.formatComment(comment, currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if message == "" {
		c.JSON(status, response)
		return
	}
	c.JSON(status, gin.H{"message": message, "comment": response})
}

// commentFromParam loads the comment named by :commentId, answering 404 itself.
func (s *Server) commentFromParam(c *gin.Context) (*domain.Comment, bool) {
	param := c.Param("commentId")
	id, err := uuid.Parse(param)
	if err != nil {
		abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("Comment with comment ID %s does not exist.", param))
		return nil, false
	}
	comment, err := s.store.GetComment(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("Comment with comment ID %s does not exist.", param))
			return nil, false
		}
		s.respondError(c, err)
		return nil, false
	}
	return comment, true
}

func (s *Server) ownCommentFromParam(c *gin.Context) (*domain.Comment, bool) {
	comment, ok := s.commentFromParam(c)
	if !ok {
		return nil, false
	}
	if comment.AuthorID != currentUser(c).ID {
		abortWithMessage(c, http.StatusForbidden, "Cannot modify other users' comments.")
		return nil, false
	}
	return comment, true
}
