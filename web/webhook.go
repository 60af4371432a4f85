package web

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleTelegramWebhook accepts Telegram update envelopes. Business branches
// always acknowledge with 200 {"ok":true}; only unhandled failures produce a
// 500 with an error body.
func (s *Server) handleTelegramWebhook(c *gin.Context) {
	if s.tgSecret != "" {
		if c.GetHeader(secretTokenHeader) != s.tgSecret {
			s.logger.Errorw("invalid webhook signature")
			c.String(http.StatusUnauthorized, "Unauthorized")
			return
		}
	} else {
		s.logger.Warn("webhook secret not configured - signature validation disabled")
	}

	var upd tg.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&upd); err != nil {
		s.logger.Errorw("failed parsing telegram update", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "malformed update"})
		return
	}

	if err := s.tg.HandleUpdate(c.Request.Context(), &upd); err != nil {
		s.logger.Errorw("telegram bot error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
