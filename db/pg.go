package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// GetOrCreateUser resolves the chat user by Telegram ID, inserting a fresh
// record on first contact. Creation is the only persisted user state
// transition and it is append-only.
func (d *Database) GetOrCreateUser(ctx context.Context, telegramID int64, username string, chatID int64) (*TelegramUser, error) {
	usr := &TelegramUser{TelegramID: telegramID, Username: username, ChatID: chatID}

	err := d.pool.QueryRow(ctx, `SELECT id, telegram_username, chat_id
FROM telegram_users
WHERE telegram_id=$1`, telegramID).Scan(&usr.ID, &usr.Username, &usr.ChatID)

	switch {
	case err == pgx.ErrNoRows:
		err = d.pool.QueryRow(ctx, `INSERT INTO telegram_users(telegram_id, telegram_username, chat_id, created_at)
VALUES($1, $2, $3, $4)
RETURNING id`, telegramID, username, chatID, clk.Now().UTC()).Scan(&usr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed creating telegram user")
		}

	case err != nil:
		return nil, errors.Wrap(err, "failed fetching telegram user")
	}

	return usr, nil
}

// ListTasks returns the user's tasks ordered by creation time descending.
// Command indices (/done n, /delete n) are positions in this ordering.
func (d *Database) ListTasks(ctx context.Context, userID int64) ([]Task, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, text, completed, due_date, created_at
FROM tasks
WHERE telegram_user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying tasks")
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t := Task{UserID: userID}
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed scanning task row")
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading task rows")
	}

	return tasks, nil
}

// AddTask inserts a new task row for the user.
func (d *Database) AddTask(ctx context.Context, userID int64, text string) error {
	if _, err := d.pool.Exec(ctx, `INSERT INTO tasks(telegram_user_id, text, created_at)
VALUES($1, $2, $3)`, userID, text, clk.Now().UTC()); err != nil {
		return errors.Wrap(err, "failed to add task")
	}
	return nil
}

// CompleteTask marks the task as completed.
func (d *Database) CompleteTask(ctx context.Context, taskID int64) error {
	if _, err := d.pool.Exec(ctx, `UPDATE tasks SET completed=TRUE
WHERE id=$1`, taskID); err != nil {
		return errors.Wrap(err, "failed to complete task")
	}
	return nil
}

// DeleteTask removes the task row.
func (d *Database) DeleteTask(ctx context.Context, taskID int64) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM tasks
WHERE id=$1`, taskID); err != nil {
		return errors.Wrap(err, "failed to delete task")
	}
	return nil
}
