package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"zentask/assistant"
	"zentask/task"
)

const (
	themeKey     = "zentask-theme"
	defaultTheme = "zen"

	txtAIRateLimited     = "Слишком много запросов, попробуйте позже"
	txtAIPaymentRequired = "Требуется пополнение баланса"
	txtAINoReply         = "Не удалось получить ответ"
	txtAIFailed          = "Упс, что-то пошло не так. Попробуйте позже!"
)

type taskRequest struct {
	Text     string     `json:"text"`
	Reminder *time.Time `json:"reminder"`
}

type updateTaskRequest struct {
	Toggle   bool       `json:"toggle"`
	Text     string     `json:"text"`
	Reminder *time.Time `json:"reminder"`
}

type assistantRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) handleAddTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := s.store.Add(req.Text, req.Reminder)
	switch {
	case err == task.ErrEmptyText:
		c.JSON(http.StatusBadRequest, gin.H{"error": "task text can't be empty"})
		return
	case err != nil:
		s.logger.Errorw("failed adding task", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")

	var updated task.Task
	var err error
	if req.Toggle {
		updated, err = s.store.Toggle(id)
	} else {
		updated, err = s.store.Update(id, req.Text, req.Reminder)
	}

	switch {
	case err == task.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case err == task.ErrEmptyText:
		c.JSON(http.StatusBadRequest, gin.H{"error": "task text can't be empty"})
	case err != nil:
		s.logger.Errorw("failed updating task", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	err := s.store.Delete(c.Param("id"))
	switch {
	case err == task.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case err != nil:
		s.logger.Errorw("failed deleting task", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Stats())
}

// handleCalendar groups tasks with reminders by day of the requested month.
func (s *Server) handleCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be a number in 1..12"})
		return
	}

	days := make(map[int][]task.Task)
	for _, t := range s.store.List() {
		if t.Reminder == nil {
			continue
		}
		r := *t.Reminder
		if r.Year() == year && int(r.Month()) == month {
			days[r.Day()] = append(days[r.Day()], t)
		}
	}

	c.JSON(http.StatusOK, days)
}

func (s *Server) handleGetAlarm(c *gin.Context) {
	alarm, ok := s.poller.Alarm()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, alarm)
}

func (s *Server) handleDismissAlarm(c *gin.Context) {
	s.poller.Dismiss()
	c.Status(http.StatusNoContent)
}

// handleAssistant forwards one message to the text-generation gateway with
// the current task list as context. The reply is advisory text only; the
// client adds a suggested task explicitly via POST /api/tasks.
func (s *Server) handleAssistant(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	typ := assistant.PromptDefault
	if req.Type == string(assistant.PromptReminder) {
		typ = assistant.PromptReminder
	}

	reply, err := s.ai.Reply(c.Request.Context(), typ, taskListContext(s.store.List()), req.Message)
	switch {
	case err == assistant.ErrRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": txtAIRateLimited})
		return
	case err == assistant.ErrPaymentRequired:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": txtAIPaymentRequired})
		return
	case err != nil:
		s.logger.Errorw("assistant call failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": txtAIFailed})
		return
	}

	if reply == "" {
		reply = txtAINoReply
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (s *Server) handleGetTheme(c *gin.Context) {
	theme, ok := s.kv.Get(themeKey)
	if !ok || theme == "" {
		theme = defaultTheme
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (s *Server) handleSetTheme(c *gin.Context) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Theme == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme name is required"})
		return
	}

	if err := s.kv.Set(themeKey, req.Theme); err != nil {
		s.logger.Errorw("failed saving theme", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// taskListContext serializes the web task list for the assistant prompt.
func taskListContext(tasks []task.Task) string {
	if len(tasks) == 0 {
		return ""
	}

	out := ""
	for i, t := range tasks {
		if i > 0 {
			out += "\n"
		}
		mark := "○"
		if t.Completed {
			mark = "✓"
		}
		out += "- " + mark + " " + t.Text
		if t.Reminder != nil {
			out += " (срок: " + t.Reminder.Format("2006-01-02 15:04") + ")"
		}
	}
	return out
}
