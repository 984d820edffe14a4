package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"
)

// memoryUserRepository keeps users in process memory. Used for tests and
// STORAGE_DRIVER=memory.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
	}
	if _, exists := r.byID[user.ID]; exists {
		return fmt.Errorf("user with given id already exists: %w", common.ErrConflict)
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) UpdateRole(ctx context.Context, id string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Role = role
	r.byID[id] = u
	return nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return nil
}

type memoryTask struct {
	task model.Task
	seq  uint64
}

type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]memoryTask
	seq   uint64
}

func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{tasks: make(map[string]memoryTask)}
}

func copyTask(t model.Task) model.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (r *memoryTaskRepository) Create(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("task with given id already exists: %w", common.ErrConflict)
	}
	r.seq++
	r.tasks[task.ID] = memoryTask{task: copyTask(*task), seq: r.seq}
	return nil
}

func (r *memoryTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mt, ok := r.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	t := copyTask(mt.task)
	return &t, nil
}

func (r *memoryTaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	r.mu.RLock()
	matched := make([]memoryTask, 0, len(r.tasks))
	for _, mt := range r.tasks {
		if filter.OwnerID != "" && mt.task.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && mt.task.Status != filter.Status {
			continue
		}
		matched = append(matched, mt)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]model.Task, 0, len(matched))
	for _, mt := range matched {
		tasks = append(tasks, copyTask(mt.task))
	}
	return tasks, nil
}

func (r *memoryTaskRepository) Update(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt, ok := r.tasks[task.ID]
	if !ok {
		return common.ErrNotFound
	}
	updated := copyTask(*task)
	updated.OwnerID = mt.task.OwnerID
	updated.CreatedAt = mt.task.CreatedAt
	mt.task = updated
	r.tasks[task.ID] = mt
	return nil
}

func (r *memoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
