package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats returns counts of the stored records.
func (s *Server) GetStats(c *gin.Context) {
	counters := []struct {
		name  string
		count func() (int, error)
	}{
		{"users", s.store.CountUsers},
		{"freets", s.store.CountFreets},
		{"comments", s.store.CountComments},
		{"reactions", s.store.CountReactions},
	}

	stats := make(gin.H, len(counters))
	for _, counter := range counters {
		n, err := counter.count()
		if err != nil {
			s.respondError(c, err)
			return
		}
		stats[counter.name] = n
	}
	c.JSON(http.StatusOK, stats)
}
