package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

type createFreetRequest struct {
	Content   string   `json:"content" binding:"required,content"`
	Tags      []string `json:"tags" binding:"omitempty,dive,freettag"`
	Important bool     `json:"important"`
}

type contentRequest struct {
	Content string `json:"content" binding:"required,content"`
}

// ListFreets returns freets, most recently modified first, optionally narrowed
// by the author, tag and important query parameters.
func (s *Server) ListFreets(c *gin.Context) {
	viewer := currentUser(c)
	filter := domain.FreetFilter{}

	if username := c.Query("author"); username != "" {
		author, err := s.store.GetUserByUsername(username)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("A user with username %s does not exist.", username))
				return
			}
			s.respondError(c, err)
			return
		}
		filter.AuthorID = &author.ID
		filter.ExcludeAnonymous = viewer == nil || viewer.ID != author.ID
	}

	tag, ok := tagFromQuery(c)
	if !ok {
		return
	}
	filter.Tag = tag

	if important := c.Query("important"); important != "" {
		value, err := strconv.ParseBool(important)
		if err != nil {
			abortWithMessage(c, http.StatusBadRequest, "Query parameter important must be true or false.")
			return
		}
		filter.ImportantOnly = value
	}

	freets, err := s.store.ListFreets(filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondFreets(c, freets, viewer)
}

// FollowingFeed returns the freets of the users the viewer follows. Anonymous
// freets never appear here since they would reveal their author.
func (s *Server) FollowingFeed(c *gin.Context) {
	viewer := currentUser(c)
	tag, ok := tagFromQuery(c)
	if !ok {
		return
	}

	following, err := s.store.ListFollowing(viewer.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	authorIDs := make([]uuid.UUID, 0, len(following))
	for _, user := range following {
		authorIDs = append(authorIDs, user.ID)
	}

	freets, err := s.store.ListFreetsByAuthors(authorIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondFreets(c, domain.FilterByTag(freets, tag), viewer)
}

// OnThisDayFeed returns the viewer's own freets posted on today's date in earlier years.
func (s *Server) OnThisDayFeed(c *gin.Context) {
	viewer := currentUser(c)
	freets, err := s.store.ListFreets(domain.FreetFilter{AuthorID: &viewer.ID})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondFreets(c, domain.OnThisDay(freets, s.opts.Now()), viewer)
}

// GetFreet returns a single freet.
func (s *Server) GetFreet(c *gin.Context) {
	freet, ok := s.freetFromParam(c)
	if !ok {
		return
	}
	s.respondFreet(c, http.StatusOK, "", freet)
}

// CreateFreet posts a freet as the viewer, anonymously when they are in anonymous mode.
func (s *Server) CreateFreet(c *gin.Context) {
	var req createFreetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}
	tags := domain.NormalizeTags(req.Tags)
	if len(tags) > domain.MaxTags {
		abortWithMessage(c, http.StatusBadRequest, fmt.Sprintf("A freet can have at most %d tags.", domain.MaxTags))
		return
	}

	viewer := currentUser(c)
	freet := &domain.Freet{
		AuthorID:  viewer.ID,
		Content:   strings.TrimSpace(req.Content),
		Tags:      tags,
		Important: req.Important,
		Anonymous: viewer.Anonymous,
	}
	if err := s.store.CreateFreet(freet); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondFreet(c, http.StatusCreated, "Your freet was created successfully.", freet)
}

// UpdateFreet replaces the content of one of the viewer's freets.
func (s *Server) UpdateFreet(c *gin.Context) {
	freet, ok := s.ownFreetFromParam(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := s.store.UpdateFreetContent(freet.ID, strings.TrimSpace(req.Content)); err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.store.GetFreet(freet.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondFreet(c, http.StatusOK, "Your freet was updated successfully.", updated)
}

// DeleteFreet removes one of the viewer's freets.
func (s *Server) DeleteFreet(c *gin.Context) {
	freet, ok := s.ownFreetFromParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteFreet(freet.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your freet was deleted successfully."})
}

// ReactToFreet returns a handler pressing the action button on a freet.
func (s *Server) ReactToFreet(action domain.Reaction) gin.HandlerFunc {
	return func(c *gin.Context) {
		freet, ok := s.freetFromParam(c)
		if !ok {
			return
		}
		if _, ok := s.react(c, domain.TargetFreet, freet.ID, action); !ok {
			return
		}
		updated, err := s.store.GetFreet(freet.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		s.respondFreet(c, http.StatusOK, "", updated)
	}
}

// react applies a reaction and records the transition.
func (s *Server) react(c *gin.Context, kind domain.TargetKind, targetID uuid.UUID, action domain.Reaction) (domain.Reaction, bool) {
	next, err := s.store.React(kind, targetID, currentUser(c).ID, action)
	if err != nil {
		s.respondError(c, err)
		return domain.ReactionNone, false
	}
	s.opts.Metrics.ObserveReaction(string(kind), next.String())
	return next, true
}

func (s *Server) respondFreet(c *gin.Context, status int, message string, freet *domain.Freet) {
	response, err := s.formatFreet(freet, currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if message == "" {
		c.JSON(status, response)
		return
	}
	c.JSON(status, gin.H{"message": message, "freet": response})
}

func (s *Server) respondFreets(c *gin.Context, freets []*domain.Freet, viewer *domain.User) {
	responses, err := s.formatFreets(freets, viewer)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// tagFromQuery reads and normalises the tag query parameter. An empty result
// means no tag filter.
func tagFromQuery(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("tag"))
	if raw == "" {
		return "", true
	}
	if !tagPattern.MatchString(raw) {
		abortWithMessage(c, http.StatusBadRequest, "Query parameter tag must be 1-30 letters, numbers or underscores.")
		return "", false
	}
	return domain.NormalizeTags([]string{raw})[0], true
}

// freetFromParam loads the freet named by :freetId, answering 404 itself.
func (s *Server) freetFromParam(c *gin.Context) (*domain.Freet, bool) {
	param := c.Param("freetId")
	id, err := uuid.Parse(param)
	if err != nil {
		abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("Freet with freet ID %s does not exist.", param))
		return nil, false
	}
	freet, err := s.store.GetFreet(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("Freet with freet ID %s does not exist.", param))
			return nil, false
		}
		s.respondError(c, err)
		return nil, false
	}
	return freet, true
}

// ownFreetFromParam is freetFromParam restricted to the viewer's freets.
func (s *Server) ownFreetFromParam(c *gin.Context) (*domain.Freet, bool) {
	freet, ok := s.freetFromParam(c)
	if !ok {
		return nil, false
	}
	if freet.AuthorID != currentUser(c).ID {
		abortWithMessage(c, http.StatusForbidden, "Cannot modify other users' freets.")
		return nil, false
	}
	return freet, true
}
