// Package assistant is the call path to the hosted text-generation gateway.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Upstream conditions the callers distinguish from generic failure.
var (
	ErrRateLimited     = errors.New("assistant: rate limited")
	ErrPaymentRequired = errors.New("assistant: payment required")
)

// PromptType selects the system prompt flavor.
type PromptType string

const (
	// PromptDefault helps the user formulate tasks.
	PromptDefault PromptType = "default"
	// PromptReminder produces a short motivational nudge about open tasks.
	PromptReminder PromptType = "reminder"
)

const (
	defaultTimeout = 30 * time.Second

	systemPromptDefault = `Ты — умный ассистент ZenTask, помогающий ставить задачи.

Текущие задачи пользователя:
%s

Правила:
- Помогай формулировать задачи конкретно и выполнимо
- Предлагай разбивать большие задачи на маленькие
- Отвечай кратко и по делу
- Можешь предлагать даты для задач
- Говори на русском языке
- Используй эмодзи умеренно`

	systemPromptReminder = `Ты — дружелюбный ассистент ZenTask. Твоя задача — давать короткие напоминания и советы по продуктивности.

Текущие задачи пользователя:
%s

Правила:
- Отвечай кратко, максимум 2-3 предложения
- Будь позитивным и мотивирующим
- Используй эмодзи для дружелюбности
- Напоминай о невыполненных задачах с приближающимися сроками
- Говори на русском языке`
)

type Client struct {
	url    string
	apiKey string
	model  string
	hc     *http.Client
	logger *zap.SugaredLogger
}

func NewClient(url, apiKey, model string, l *zap.SugaredLogger) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		model:  model,
		hc:     &http.Client{Timeout: defaultTimeout},
		logger: l,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Reply sends one synchronous, non-streaming completion request. The system
// prompt embeds the caller's serialized task list; the user message is
// forwarded verbatim. Returns the reply text, possibly empty.
func (c *Client) Reply(ctx context.Context, typ PromptType, taskList, message string) (string, error) {
	system := systemPromptDefault
	if typ == PromptReminder {
		system = systemPromptReminder
	}
	if taskList == "" {
		taskList = "Нет задач"
	}
	if message == "" {
		message = "Дай мне напоминание о моих задачах"
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(system, taskList)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed serializing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "gateway request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusPaymentRequired:
		return "", ErrPaymentRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Errorw("gateway error", "status", resp.StatusCode, "body", string(raw))
		return "", errors.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "failed parsing gateway response")
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
