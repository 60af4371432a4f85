package task

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"

	"zentask/kvstore"
)

const todosKey = "zentask-todos"

var (
	ErrEmptyText = errors.New("task text can't be empty")
	ErrNotFound  = errors.New("task not found")
)

// Store is the web app's task list: an ordered, newest-first collection
// persisted as a single serialized entry in the key-value store. Every
// mutation persists the whole list in one write.
type Store struct {
	kv    *kvstore.Store
	clk   clock.Clock
	mux   sync.Mutex
	tasks []Task
}

// NewStore loads the task list from the key-value store. A missing or
// unparsable entry starts an empty list rather than failing.
func NewStore(kv *kvstore.Store, clk clock.Clock) *Store {
	s := &Store{kv: kv, clk: clk}

	raw, ok := kv.Get(todosKey)
	if ok {
		var tasks []Task
		if err := json.Unmarshal([]byte(raw), &tasks); err == nil {
			s.tasks = tasks
		}
	}

	return s
}

// Add prepends a new task. Text is trimmed and must be non-empty.
func (s *Store) Add(text string, reminder *time.Time) (Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Task{}, ErrEmptyText
	}

	t := Task{
		ID:        uuid.NewString(),
		Text:      trimmed,
		CreatedAt: s.clk.Now().UTC(),
		Reminder:  reminder,
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	s.tasks = append([]Task{t}, s.tasks...)
	if err := s.flush(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Update replaces text and reminder of the task and re-arms its reminder.
func (s *Store) Update(id, text string, reminder *time.Time) (Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Task{}, ErrEmptyText
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks[i].Text = trimmed
		s.tasks[i].Reminder = reminder
		s.tasks[i].Notified = false
		if err := s.flush(); err != nil {
			return Task{}, err
		}
		return s.tasks[i], nil
	}

	return Task{}, ErrNotFound
}

// Toggle flips the completion flag of the task.
func (s *Store) Toggle(id string) (Task, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks[i].Completed = !s.tasks[i].Completed
		if err := s.flush(); err != nil {
			return Task{}, err
		}
		return s.tasks[i], nil
	}

	return Task{}, ErrNotFound
}

// Delete removes the task outright. There is no soft delete or archive.
func (s *Store) Delete(id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		return s.flush()
	}

	return ErrNotFound
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

// List returns a copy of the task list, newest first.
func (s *Store) List() []Task {
	s.mux.Lock()
	defer s.mux.Unlock()

	tasks := make([]Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Stats returns total and completed counts.
func (s *Store) Stats() Stats {
	s.mux.Lock()
	defer s.mux.Unlock()

	st := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			st.Completed++
		}
	}
	return st
}

// MarkNotified sets the notified flag on all listed tasks and persists the
// batch in a single write. Already-notified tasks stay notified.
func (s *Store) MarkNotified(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	for i := range s.tasks {
		if want[s.tasks[i].ID] {
			s.tasks[i].Notified = true
		}
	}
	return s.flush()
}

// flush persists the list. Caller must hold mux.
func (s *Store) flush() error {
	raw, err := json.Marshal(s.tasks)
	if err != nil {
		return errors.Wrap(err, "failed serializing tasks")
	}
	return s.kv.Set(todosKey, string(raw))
}
