package tgbot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"zentask/assistant"
	"zentask/db"
)

const (
	maxTaskLen      = 500
	maxMessageLen   = 2000
	maxAssistantLen = 1000
	maxTaskNumber   = 10000
)

const (
	txtNoTasks           = "📋 У тебя пока нет задач.\n\nДобавь первую командой:\n/add Название задачи"
	txtAddUsage          = "❌ Укажи текст задачи: /add Купить молоко"
	txtInvalidNumber     = "❌ Неверный номер. Укажи число от 1 до количества задач. Посмотри список: /tasks"
	txtAIEmptyReply      = "Не понял, попробуй ещё раз 🤔"
	txtAIFailed          = "Упс, что-то пошло не так. Попробуй позже! 😅"
	txtAIRateLimited     = "Слишком много запросов, попробуй позже 🙏"
	txtAIPaymentRequired = "Требуется пополнение баланса ИИ-шлюза 💳"
	txtEmptyTaskList     = "Список задач пуст"

	fmtWelcome = `👋 Привет, %s!

Я ZenTask бот — помогу управлять задачами.

📝 Команды:
/tasks — показать задачи
/add &lt;задача&gt; — добавить задачу
/done &lt;номер&gt; — отметить выполненной
/delete &lt;номер&gt; — удалить задачу

Или просто напиши мне, и я помогу с планированием! 🚀`
	fmtTaskList    = "📋 Твои задачи:\n\n%s\n\n✏️ /done &lt;номер&gt; — выполнить\n🗑 /delete &lt;номер&gt; — удалить"
	fmtTaskAdded   = "✅ Задача добавлена:\n\"%s\""
	fmtTaskTooLong = "❌ Задача слишком длинная. Максимум %d символов."
	fmtTaskDone    = "✅ Отлично! Задача выполнена:\n\"%s\""
	fmtTaskDeleted = "🗑 Задача удалена:\n\"%s\""
)

// Store is the slice of the database the handler needs.
type Store interface {
	GetOrCreateUser(ctx context.Context, telegramID int64, username string, chatID int64) (*db.TelegramUser, error)
	ListTasks(ctx context.Context, userID int64) ([]db.Task, error)
	AddTask(ctx context.Context, userID int64, text string) error
	CompleteTask(ctx context.Context, taskID int64) error
	DeleteTask(ctx context.Context, taskID int64) error
}

// Assistant answers free-text messages given the task list as context.
type Assistant interface {
	Reply(ctx context.Context, typ assistant.PromptType, taskList, message string) (string, error)
}

// Sender delivers the reply back to the chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Handler dispatches one inbound chat message. It keeps no per-user state:
// each update is handled independently against the remote store.
type Handler struct {
	store  Store
	ai     Assistant
	sender Sender
	logger *zap.SugaredLogger
}

func NewHandler(s Store, ai Assistant, snd Sender, l *zap.SugaredLogger) *Handler {
	return &Handler{store: s, ai: ai, sender: snd, logger: l}
}

// HandleUpdate processes one Telegram update. A nil or text-less message is
// acknowledged silently. Returned errors are unhandled failures; business
// outcomes (bad input, assistant hiccups) become replies, not errors.
func (h *Handler) HandleUpdate(ctx context.Context, upd *tg.Update) error {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return nil
	}

	// Limits count characters, not bytes: Cyrillic text is two bytes per rune.
	if utf8.RuneCountInString(msg.Text) > maxMessageLen {
		h.logger.Warnw("message too long, ignoring", "len", utf8.RuneCountInString(msg.Text))
		return nil
	}

	username := msg.From.UserName
	if username == "" {
		username = msg.From.FirstName
	}
	if username == "" {
		username = "User"
	}

	usr, err := h.store.GetOrCreateUser(ctx, msg.From.ID, username, msg.Chat.ID)
	if err != nil {
		return err
	}

	tasks, err := h.store.ListTasks(ctx, usr.ID)
	if err != nil {
		return err
	}

	reply, err := h.dispatch(ctx, usr, tasks, msg.Text)
	if err != nil {
		return err
	}

	return h.sender.Send(usr.ChatID, reply)
}

// dispatch matches the message against the command grammar by literal
// case-insensitive prefix and produces the reply text.
func (h *Handler) dispatch(ctx context.Context, usr *db.TelegramUser, tasks []db.Task, text string) (string, error) {
	command := strings.ToLower(strings.TrimSpace(text))

	switch {
	case command == "/start":
		return fmt.Sprintf(fmtWelcome, html.EscapeString(usr.Username)), nil

	case command == "/tasks":
		if len(tasks) == 0 {
			return txtNoTasks, nil
		}
		return fmt.Sprintf(fmtTaskList, formatTasks(tasks)), nil

	case strings.HasPrefix(command, "/add "):
		return h.addTask(ctx, usr, text[len("/add "):])

	case strings.HasPrefix(command, "/done "):
		n, ok := parseTaskNumber(text[len("/done "):], len(tasks))
		if !ok {
			return txtInvalidNumber, nil
		}
		t := tasks[n-1]
		if err := h.store.CompleteTask(ctx, t.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf(fmtTaskDone, html.EscapeString(t.Text)), nil

	case strings.HasPrefix(command, "/delete "):
		n, ok := parseTaskNumber(text[len("/delete "):], len(tasks))
		if !ok {
			return txtInvalidNumber, nil
		}
		t := tasks[n-1]
		if err := h.store.DeleteTask(ctx, t.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf(fmtTaskDeleted, html.EscapeString(t.Text)), nil

	default:
		return h.askAssistant(ctx, tasks, text), nil
	}
}

func (h *Handler) addTask(ctx context.Context, usr *db.TelegramUser, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case utf8.RuneCountInString(trimmed) > maxTaskLen:
		return fmt.Sprintf(fmtTaskTooLong, maxTaskLen), nil
	case trimmed == "":
		return txtAddUsage, nil
	}

	if err := h.store.AddTask(ctx, usr.ID, trimmed); err != nil {
		return "", err
	}
	return fmt.Sprintf(fmtTaskAdded, html.EscapeString(trimmed)), nil
}

// askAssistant forwards free text to the bridge. Failures are terminal for
// this message and mapped to fixed replies; nothing is retried.
func (h *Handler) askAssistant(ctx context.Context, tasks []db.Task, text string) string {
	if utf8.RuneCountInString(text) > maxAssistantLen {
		// truncate on a rune boundary so the gateway never sees broken UTF-8
		text = string([]rune(text)[:maxAssistantLen]) + "..."
	}

	reply, err := h.ai.Reply(ctx, assistant.PromptDefault, taskListContext(tasks), text)
	switch {
	case err == assistant.ErrRateLimited:
		return txtAIRateLimited
	case err == assistant.ErrPaymentRequired:
		return txtAIPaymentRequired
	case err != nil:
		h.logger.Errorw("assistant call failed", "err", err)
		return txtAIFailed
	case reply == "":
		return txtAIEmptyReply
	}

	return html.EscapeString(reply)
}

// formatTasks renders the numbered list shown to the user. Escaped text,
// done/not-done glyph, due date when present.
func formatTasks(tasks []db.Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		line := fmt.Sprintf("%d. %s %s", i+1, glyph(t.Completed), html.EscapeString(t.Text))
		if t.DueDate != nil {
			line += " 📅 " + t.DueDate.Format("2006-01-02")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// taskListContext serializes the task list for the assistant system prompt.
func taskListContext(tasks []db.Task) string {
	if len(tasks) == 0 {
		return txtEmptyTaskList
	}

	lines := make([]string, len(tasks))
	for i, t := range tasks {
		line := glyph(t.Completed) + " " + html.EscapeString(t.Text)
		if t.DueDate != nil {
			line += " (" + t.DueDate.Format("2006-01-02") + ")"
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func glyph(completed bool) string {
	if completed {
		return "✅"
	}
	return "⬜"
}

// parseTaskNumber validates a command argument as an exact digit string in
// range; it never lets a parse failure escape as an error.
func parseTaskNumber(raw string, taskCount int) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 || n > maxTaskNumber || n > taskCount {
		return 0, false
	}
	return n, true
}
