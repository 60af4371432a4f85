package task

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentask/kvstore"
)

func newTestStore(t *testing.T) (*Store, *kvstore.Store, clock.FakeClock) {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	clk := clock.NewFake()
	return NewStore(kv, clk), kv, clk
}

func TestAddPrependsAndTrims(t *testing.T) {
	s, _, clk := newTestStore(t)

	_, err := s.Add("first", nil)
	require.NoError(t, err)
	clk.Add(time.Minute)
	_, err = s.Add("  second  ", nil)
	require.NoError(t, err)

	tasks := s.List()
	require.Len(t, tasks, 2)
	assert.Equal(t, "second", tasks[0].Text)
	assert.Equal(t, "first", tasks[1].Text)
	assert.True(t, tasks[1].CreatedAt.Before(tasks[0].CreatedAt))
}

func TestAddRejectsEmptyText(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Add("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, s.List())
}

func TestToggleFlipsCompletion(t *testing.T) {
	s, _, _ := newTestStore(t)

	created, err := s.Add("buy milk", nil)
	require.NoError(t, err)

	toggled, err := s.Toggle(created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = s.Toggle(created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestUpdateRearmsReminder(t *testing.T) {
	s, _, clk := newTestStore(t)

	due := clk.Now().Add(-time.Minute)
	created, err := s.Add("call mom", &due)
	require.NoError(t, err)
	require.NoError(t, s.MarkNotified([]string{created.ID}))

	newDue := clk.Now().Add(time.Hour)
	updated, err := s.Update(created.ID, "call mom tonight", &newDue)
	require.NoError(t, err)

	assert.Equal(t, "call mom tonight", updated.Text)
	assert.False(t, updated.Notified, "editing a task must re-arm its reminder")
	require.NotNil(t, updated.Reminder)
	assert.True(t, updated.Reminder.Equal(newDue))
}

func TestDeleteRemovesTask(t *testing.T) {
	s, _, _ := newTestStore(t)

	created, err := s.Add("obsolete", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(created.ID))
	assert.Empty(t, s.List())
	assert.ErrorIs(t, s.Delete(created.ID), ErrNotFound)
}

func TestStats(t *testing.T) {
	s, _, _ := newTestStore(t)

	a, err := s.Add("a", nil)
	require.NoError(t, err)
	_, err = s.Add("b", nil)
	require.NoError(t, err)
	_, err = s.Toggle(a.ID)
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, Stats{Total: 2, Completed: 1}, st)
}

func TestMarkNotifiedPersistsBatch(t *testing.T) {
	s, kv, clk := newTestStore(t)

	due := clk.Now().Add(-time.Second)
	a, err := s.Add("a", &due)
	require.NoError(t, err)
	b, err := s.Add("b", &due)
	require.NoError(t, err)

	require.NoError(t, s.MarkNotified([]string{a.ID, b.ID}))

	// notified flags must be visible after a reload from the same kv entry
	reloaded := NewStore(kv, clk)
	for _, tk := range reloaded.List() {
		assert.True(t, tk.Notified)
	}
}

func TestTasksSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	kv, err := kvstore.Open(path)
	require.NoError(t, err)
	clk := clock.NewFake()

	s := NewStore(kv, clk)
	due := clk.Now().Add(time.Hour)
	created, err := s.Add("persisted", &due)
	require.NoError(t, err)

	kv2, err := kvstore.Open(path)
	require.NoError(t, err)
	s2 := NewStore(kv2, clk)

	got, err := s2.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Text)
	require.NotNil(t, got.Reminder)
	assert.True(t, got.Reminder.Equal(due))
}

func TestCorruptEntryStartsEmpty(t *testing.T) {
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, kv.Set("zentask-todos", "not json"))

	s := NewStore(kv, clock.NewFake())
	assert.Empty(t, s.List())
}

func TestDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"past reminder fires", Task{Reminder: &past}, true},
		{"reminder at exactly now fires", Task{Reminder: &now}, true},
		{"future reminder waits", Task{Reminder: &future}, false},
		{"no reminder", Task{}, false},
		{"completed task never fires", Task{Reminder: &past, Completed: true}, false},
		{"already notified never fires again", Task{Reminder: &past, Notified: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}
