// Package reminder polls the task store on a fixed tick and fires one-shot
// notifications for due tasks.
package reminder

import (
	"sort"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"zentask/task"
)

const reminderTick = 5 * time.Second

// Notifier is the injected notification capability. Granted mirrors the
// permission state decided at startup; Notify is never called when the
// permission isn't granted, and no prompt happens at fire time.
type Notifier interface {
	Granted() bool
	Notify(title, body string)
}

type Manager struct {
	store    *task.Store
	notifier Notifier
	logger   *zap.SugaredLogger
	clk      clock.Clock
	tick     time.Duration

	mux   sync.Mutex
	alarm *task.Task

	stop chan struct{}
	once sync.Once
}

func NewManager(s *task.Store, n Notifier, clk clock.Clock, l *zap.SugaredLogger) *Manager {
	return &Manager{
		store:    s,
		notifier: n,
		logger:   l,
		clk:      clk,
		tick:     reminderTick,
		stop:     make(chan struct{}),
	}
}

// Run polls until Stop is called. It is supposed to run in its own goroutine.
func (m *Manager) Run() {
	t := time.NewTicker(m.tick)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.Poll()
		}
	}
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// Poll scans the store once. All tasks due at this instant get their
// notified flag set in a single batched store write; each one produces a
// notification when permission is granted; the earliest-created of the
// batch becomes the foreground alarm.
func (m *Manager) Poll() {
	now := m.clk.Now()

	var due []task.Task
	for _, t := range m.store.List() {
		if t.Due(now) {
			due = append(due, t)
		}
	}

	if len(due) == 0 {
		return
	}

	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	if err := m.store.MarkNotified(ids); err != nil {
		// Don't notify without the flag persisted, otherwise the same
		// reminder would fire again next tick.
		m.logger.Errorw("failed marking tasks notified", "err", err)
		return
	}

	if m.notifier != nil && m.notifier.Granted() {
		for _, t := range due {
			m.notifier.Notify("Напоминание", t.Text)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	foreground := due[0]

	m.mux.Lock()
	m.alarm = &foreground
	m.mux.Unlock()

	m.logger.Infow("reminders fired", "count", len(due), "alarm", foreground.ID)
}

// Alarm returns the current foreground alarm, if any.
func (m *Manager) Alarm() (task.Task, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.alarm == nil {
		return task.Task{}, false
	}
	return *m.alarm, true
}

// Dismiss clears the foreground alarm.
func (m *Manager) Dismiss() {
	m.mux.Lock()
	m.alarm = nil
	m.mux.Unlock()
}
