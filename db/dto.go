package db

import "time"

// TelegramUser is a chat user record, created lazily on first contact.
type TelegramUser struct {
	ID         int64
	TelegramID int64
	Username   string
	ChatID     int64
}

// Task is a row of the Telegram-side task table. This store is independent
// from the web app's local task store; the two are never reconciled.
type Task struct {
	ID        int64
	UserID    int64
	Text      string
	Completed bool
	DueDate   *time.Time
	CreatedAt time.Time
}
