package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// NewRouter exposes the quiz service over REST plus the /ws session channel.
func NewRouter(service *app.QuizService, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  allowedOrigins,
			AllowMethods:  []string{"GET", "PUT", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	ws := NewWSHandler(service)
	h := &restHandler{service: service}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/ws", func(c *gin.Context) { ws.ServeWS(c.Writer, c.Request) })

	api := r.Group("/api")
	{
		api.GET("/topics", h.listTopics)
		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.putSettings)
		api.GET("/history", h.listHistory)
		api.GET("/sessions/:id", h.getSession)
	}
	return r
}

type restHandler struct {
	service *app.QuizService
}

func (h *restHandler) listTopics(c *gin.Context) {
	topics, err := h.service.Topics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": app.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, topics)
}

func (h *restHandler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Settings())
}

func (h *restHandler) putSettings(c *gin.Context) {
	var settings domain.SessionSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	saved, err := h.service.UpdateSettings(c.Request.Context(), settings)
	if errors.Is(err, domain.ErrInvalidSettings) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *restHandler) listHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.History(c.Request.Context()))
}

func (h *restHandler) getSession(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}
