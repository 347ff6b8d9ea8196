package store

import (
	"fmt"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/google/btree"
)

// Task is one strategic decision and the child orders it spawned, in
// the order they were recorded.
type Task struct {
	TaskID     string
	EntrustIDs []string
}

// taskLess orders task ids by length, then lexically. Ids are decimal
// strings, so this matches numeric order.
func taskLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// TaskStore is a thread-safe in-memory task registry mapping task_id to
// its entrust ids, with a reverse index by entrust_id and an ordered
// index of task ids. Tasks are never deleted.
type TaskStore struct {
	mu       sync.RWMutex
	tasks    map[string][]string
	entrusts map[string]string // entrust_id → task_id
	ordered  *btree.BTreeG[string]
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	const degree = 16
	return &TaskStore{
		tasks:    make(map[string][]string),
		entrusts: make(map[string]string),
		ordered:  btree.NewG[string](degree, taskLess),
	}
}

// Record appends entrustID to the task, creating the task on first use.
// Recording the same pair twice appends a duplicate; callers must avoid
// that. It returns domain.ErrEntrustConflict if the entrust already
// belongs to a different task.
func (s *TaskStore) Record(taskID, entrustID string) error {
	if taskID == "" || entrustID == "" {
		return &domain.ValidationError{Message: "task_id and entrust_id must be non-empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.entrusts[entrustID]; ok && owner != taskID {
		return fmt.Errorf("%w: entrust %s already belongs to task %s", domain.ErrEntrustConflict, entrustID, owner)
	}
	if _, ok := s.tasks[taskID]; !ok {
		s.ordered.ReplaceOrInsert(taskID)
	}
	s.tasks[taskID] = append(s.tasks[taskID], entrustID)
	s.entrusts[entrustID] = taskID
	return nil
}

// Entrusts returns a copy of the task's entrust ids in record order. It
// returns domain.ErrUnknownTask if the task was never recorded.
func (s *TaskStore) Entrusts(taskID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTask, taskID)
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// TaskOf returns the task an entrust id was recorded under.
func (s *TaskStore) TaskOf(entrustID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.entrusts[entrustID]
	return id, ok
}

// List returns every task in ascending task id order.
func (s *TaskStore) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, s.ordered.Len())
	s.ordered.Ascend(func(id string) bool {
		ids := make([]string, len(s.tasks[id]))
		copy(ids, s.tasks[id])
		out = append(out, Task{TaskID: id, EntrustIDs: ids})
		return true
	})
	return out
}
