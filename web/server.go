// Package web is the HTTP surface: the task API for the web client and the
// Telegram webhook endpoint.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zentask/assistant"
	"zentask/kvstore"
	"zentask/reminder"
	"zentask/task"
	"zentask/tgbot"
)

// Assistant answers web-client messages given the task list as context.
type Assistant interface {
	Reply(ctx context.Context, typ assistant.PromptType, taskList, message string) (string, error)
}

type Server struct {
	store    *task.Store
	kv       *kvstore.Store
	poller   *reminder.Manager
	ai       Assistant
	tg       *tgbot.Handler
	tgSecret string
	logger   *zap.SugaredLogger
	router   *gin.Engine
}

// NewServer builds the router. tgSecret may be empty, in which case webhook
// signature validation is disabled.
func NewServer(store *task.Store, kv *kvstore.Store, poller *reminder.Manager, ai Assistant, tg *tgbot.Handler, tgSecret string, l *zap.SugaredLogger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:    store,
		kv:       kv,
		poller:   poller,
		ai:       ai,
		tg:       tg,
		tgSecret: tgSecret,
		logger:   l,
		router:   router,
	}

	router.POST("/webhook/telegram", s.handleTelegramWebhook)

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleAddTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.GET("/tasks/stats", s.handleStats)
		api.GET("/calendar", s.handleCalendar)
		api.GET("/alarm", s.handleGetAlarm)
		api.DELETE("/alarm", s.handleDismissAlarm)
		api.POST("/assistant", s.handleAssistant)
		api.GET("/theme", s.handleGetTheme)
		api.PUT("/theme", s.handleSetTheme)
	}

	return s
}

// Handler exposes the router for serving and for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}
