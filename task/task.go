package task

import "time"

// Task is a user-created unit of work with an optional one-shot reminder.
type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	Reminder  *time.Time `json:"reminder,omitempty"`
	// Notified is set once the reminder has fired so it never fires again.
	Notified bool `json:"reminderNotified,omitempty"`
}

// Due reports whether the task's reminder is eligible to fire at now.
// A past-due reminder is still eligible: reminders survive restarts.
func (t Task) Due(now time.Time) bool {
	return !t.Completed && t.Reminder != nil && !t.Reminder.After(now) && !t.Notified
}

// Stats summarizes the task list for the progress header.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}
