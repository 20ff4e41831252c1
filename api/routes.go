package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/tfkr-ae/fritter/domain"
	"github.com/tfkr-ae/fritter/observability"
)

// SetupRoutes registers every Fritter route on router.
func SetupRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(observability.Handler(s.opts.Gatherer)))

	api := router.Group("/api", compress(brotli.DefaultCompression), s.loadSession())
	{
		api.GET("/stats", s.GetStats)

		users := api.Group("/users")
		{
			users.GET("/session", s.GetSession)
			users.POST("/session", requireSignedOut, s.limiter.Middleware(), s.SignIn)
			users.DELETE("/session", requireSignedIn, s.SignOut)

			users.POST("", requireSignedOut, s.limiter.Middleware(), s.CreateUser)
			users.PATCH("", requireSignedIn, s.UpdateUser)
			users.DELETE("", requireSignedIn, s.DeleteUser)
			users.PATCH("/anonymous", requireSignedIn, s.SetAnonymous)

			users.GET("/:username", s.GetProfile)
			users.PUT("/:username/follow", requireSignedIn, s.Follow)
			users.DELETE("/:username/follow", requireSignedIn, s.Unfollow)
			users.GET("/:username/followers", s.ListFollowers)
			users.GET("/:username/following", s.ListFollowing)
		}

		freets := api.Group("/freets")
		{
			freets.GET("", s.ListFreets)
			freets.POST("", requireSignedIn, s.CreateFreet)
			freets.GET("/following", requireSignedIn, s.FollowingFeed)
			freets.GET("/onthisday", requireSignedIn, s.OnThisDayFeed)

			freets.GET("/:freetId", s.GetFreet)
			freets.PATCH("/:freetId", requireSignedIn, s.UpdateFreet)
			freets.DELETE("/:freetId", requireSignedIn, s.DeleteFreet)
			freets.PUT("/:freetId/upvote", requireSignedIn, s.ReactToFreet(domain.ReactionUp))
			freets.PUT("/:freetId/downvote", requireSignedIn, s.ReactToFreet(domain.ReactionDown))

			freets.GET("/:freetId/comments", s.ListComments)
			freets.POST("/:freetId/comments", requireSignedIn, s.CreateComment)
		}

		comments := api.Group("/comments")
		{
			comments.PATCH("/:commentId", requireSignedIn, s.UpdateComment)
			comments.DELETE("/:commentId", requireSignedIn, s.DeleteComment)
			comments.PUT("/:commentId/upvote", requireSignedIn, s.ReactToComment(domain.ReactionUp))
			comments.PUT("/:commentId/downvote", requireSignedIn, s.ReactToComment(domain.ReactionDown))
		}
	}

	router.NoRoute(s.notFound)
}

// HealthCheck reports that the server is up.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// notFound answers unknown API routes with JSON and, when a frontend is
// configured, serves its files with index.html as the fallback for client routes.
func (s *Server) notFound(c *gin.Context) {
	path := c.Request.URL.Path
	if s.opts.StaticDir == "" || strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
		abortWithMessage(c, http.StatusNotFound, "Route not found.")
		return
	}

	file := filepath.Join(s.opts.StaticDir, filepath.FromSlash(filepath.Clean("/"+path)))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}
	c.File(filepath.Join(s.opts.StaticDir, "index.html"))
}
