package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
)

// anonymousAuthor is shown in place of the author of an anonymous freet.
const anonymousAuthor = "anonymous"

type userResponse struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	DateJoined string `json:"dateJoined"`
	Anonymous  bool   `json:"anonymous"`
}

type profileResponse struct {
	Username    string `json:"username"`
	DateJoined  string `json:"dateJoined"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	IsFollowing bool   `json:"isFollowing"` // Whether the viewer follows this user
}

type freetResponse struct {
	ID           string   `json:"_id"`
	Author       string   `json:"author"`
	DateCreated  string   `json:"dateCreated"`
	DateModified string   `json:"dateModified"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	Important    bool     `json:"important"`
	Anonymous    bool     `json:"anonymous"`
	Upvotes      int      `json:"upvotes"`
	Downvotes    int      `json:"downvotes"`
	Score        int      `json:"score"`
	Reaction     string   `json:"reaction"`
}

type commentResponse struct {
	ID           string `json:"_id"`
	FreetID      string `json:"freetId"`
	Author       string `json:"author"`
	DateCreated  string `json:"dateCreated"`
	DateModified string `json:"dateModified"`
	Content      string `json:"content"`
	Upvotes      int    `json:"upvotes"`
	Downvotes    int    `json:"downvotes"`
	Score        int    `json:"score"`
	Reaction     string `json:"reaction"`
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatUser(user *domain.User) *userResponse {
	if user == nil {
		return nil
	}
	return &userResponse{
		ID:         user.ID.String(),
		Username:   user.Username,
		DateJoined: formatDate(user.DateJoined),
		Anonymous:  user.Anonymous,
	}
}

// formatFreet shapes a freet for viewer, who may be nil when signed out.
func (s *Server) formatFreet(freet *domain.Freet, viewer *domain.User) (*freetResponse, error) {
	reaction, err := s.viewerReaction(domain.TargetFreet, freet.ID, viewer)
	if err != nil {
		return nil, err
	}
	return freetResponseFor(freet, viewer, reaction), nil
}

func (s *Server) formatFreets(freets []*domain.Freet, viewer *domain.User) ([]*freetResponse, error) {
	ids := make([]uuid.UUID, len(freets))
	for i, freet := range freets {
		ids[i] = freet.ID
	}
	reactions, err := s.viewerReactions(domain.TargetFreet, ids, viewer)
	if err != nil {
		return nil, err
	}

	responses := make([]*freetResponse, len(freets))
	for i, freet := range freets {
		responses[i] = freetResponseFor(freet, viewer, reactions[freet.ID])
	}
	return responses, nil
}

func freetResponseFor(freet *domain.Freet, viewer *domain.User, reaction domain.Reaction) *freetResponse {
	author := freet.AuthorUsername
	if freet.Anonymous && (viewer == nil || viewer.ID != freet.AuthorID) {
		author = anonymousAuthor
	}

	tags := freet.Tags
	if tags == nil {
		tags = []string{}
	}
	return &freetResponse{
		ID:           freet.ID.String(),
		Author:       author,
		DateCreated:  formatDate(freet.DateCreated),
		DateModified: formatDate(freet.DateModified),
		Content:      freet.Content,
		Tags:         tags,
		Important:    freet.Important,
		Anonymous:    freet.Anonymous,
		Upvotes:      freet.Upvotes,
		Downvotes:    freet.Downvotes,
		Score:        freet.Score(),
		Reaction:     reaction.String(),
	}
}

func (s *Server) formatComment(comment *domain.Comment, viewer *domain.User) (*commentResponse, error) {
	reaction, err := s.viewerReaction(domain.TargetComment, comment.ID, viewer)
	if err != nil {
		return nil, err
	}
	return commentResponseFor(comment, reaction), nil
}

func (s *Server) formatComments(comments []*domain.Comment, viewer *domain.User) ([]*commentResponse, error) {
	ids := make([]uuid.UUID, len(comments))
	for i, comment := range comments {
		ids[i] = comment.ID
	}
	reactions, err := s.viewerReactions(domain.TargetComment, ids, viewer)
	if err != nil {
		return nil, err
	}

	responses := make([]*commentResponse, len(comments))
	for i, comment := range comments {
		responses[i] = commentResponseFor(comment, reactions[comment.ID])
	}
	return responses, nil
}

func commentResponseFor(comment *domain.Comment, reaction domain.Reaction) *commentResponse {
	return &commentResponse{
		ID:           comment.ID.String(),
		FreetID:      comment.FreetID.String(),
		Author:       comment.AuthorUsername,
		DateCreated:  formatDate(comment.DateCreated),
		DateModified: formatDate(comment.DateModified),
		Content:      comment.Content,
		Upvotes:      comment.Upvotes,
		Downvotes:    comment.Downvotes,
		Score:        comment.Score(),
		Reaction:     reaction.String(),
	}
}

func (s *Server) viewerReaction(kind domain.TargetKind, id uuid.UUID, viewer *domain.User) (domain.Reaction, error) {
	if viewer == nil {
		return domain.ReactionNone, nil
	}
	return s.store.GetReaction(kind, id, viewer.ID)
}

// viewerReactions loads the viewer's reactions on every listed target in one query.
// Targets without a reaction are absent from the map and read as ReactionNone.
func (s *Server) viewerReactions(kind domain.TargetKind, ids []uuid.UUID, viewer *domain.User) (map[uuid.UUID]domain.Reaction, error) {
	if viewer == nil || len(ids) == 0 {
		return map[uuid.UUID]domain.Reaction{}, nil
	}
	return s.store.GetReactions(kind, ids, viewer.ID)
}

// abortWithMessage ends the request with a JSON error body.
func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondError maps storage errors onto HTTP statuses. Anything unexpected is
// logged and reported as a 500 without details.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		abortWithMessage(c, http.StatusNotFound, "Resource not found.")
	case errors.Is(err, domain.ErrUsernameTaken):
		abortWithMessage(c, http.StatusConflict, "An account with this username already exists.")
	case errors.Is(err, domain.ErrAlreadyFollowing):
		abortWithMessage(c, http.StatusConflict, "You already follow this user.")
	case errors.Is(err, domain.ErrNotFollowing):
		abortWithMessage(c, http.StatusNotFound, "You do not follow this user.")
	case errors.Is(err, domain.ErrSelfFollow):
		abortWithMessage(c, http.StatusBadRequest, "You cannot follow yourself.")
	case errors.Is(err, auth.ErrPasswordTooLong):
		abortWithMessage(c, http.StatusBadRequest, fmt.Sprintf("Password must be at most %d bytes long.", auth.MaxPasswordLength))
	default:
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		abortWithMessage(c, http.StatusInternalServerError, "Something went wrong.")
	}
}
