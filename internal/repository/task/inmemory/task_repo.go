package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/task"
	repo "taskAssistant/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage хранит задачи в арене по uuid, а связи (зависимости и
// родитель/потомки) - как списки идентификаторов. Проверка цикла и вставка
// ребра выполняются под одним write-lock, поэтому конкурентные вставки не
// могут собрать цикл по устаревшему графу.
type TaskStorage struct {
	mtx        *sync.RWMutex
	storage    map[uuid.UUID]*task.Task
	ids        []uuid.UUID
	deps       map[uuid.UUID][]uuid.UUID // task -> от чего зависит
	dependents map[uuid.UUID][]uuid.UUID // task -> кто зависит от него
	children   map[uuid.UUID][]uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		mtx:        &sync.RWMutex{},
		storage:    make(map[uuid.UUID]*task.Task),
		ids:        []uuid.UUID{},
		deps:       make(map[uuid.UUID][]uuid.UUID),
		dependents: make(map[uuid.UUID][]uuid.UUID),
		children:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.create(t, time.Now())
}

func (s *TaskStorage) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// одна метка времени на весь батч
	now := time.Now()
	for _, t := range tasks {
		if err := s.create(t, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskStorage) create(t *task.Task, now time.Time) error {
	if t.ParentID != nil {
		parent, ok := s.storage[*t.ParentID]
		if !ok || parent.OwnerID != t.OwnerID {
			return repo.ErrNotFound
		}
		s.children[*t.ParentID] = append(s.children[*t.ParentID], t.UUID)
	}

	t.CreatedAt = now
	if t.Version == 0 {
		t.Version = 1
	}
	s.storage[t.UUID] = t
	s.ids = append(s.ids, t.UUID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok || t.OwnerID != owner {
		return nil, repo.ErrNotFound
	}
	return t, nil
}

func (s *TaskStorage) Update(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[t.UUID]
	if !ok || existing.OwnerID != t.OwnerID {
		return repo.ErrNotFound
	}

	now := time.Now()
	t.UpdatedAt = &now
	t.Version++
	s.storage[t.UUID] = t
	return nil
}

// Delete каскадно удаляет потомков и вычёркивает задачу из зависимостей
// всех задач, которые от неё зависели.
func (s *TaskStorage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok || t.OwnerID != owner {
		return repo.ErrNotFound
	}

	s.delete(id)
	return nil
}

func (s *TaskStorage) delete(id uuid.UUID) {
	for _, childID := range s.children[id] {
		s.delete(childID)
	}
	delete(s.children, id)

	for _, depID := range s.deps[id] {
		s.dependents[depID] = remove(s.dependents[depID], id)
	}
	delete(s.deps, id)

	for _, depID := range s.dependents[id] {
		s.deps[depID] = remove(s.deps[depID], id)
	}
	delete(s.dependents, id)

	t := s.storage[id]
	if t != nil && t.ParentID != nil {
		s.children[*t.ParentID] = remove(s.children[*t.ParentID], id)
	}

	delete(s.storage, id)
	s.ids = remove(s.ids, id)
}

func (s *TaskStorage) AddDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[taskID]
	if !ok || t.OwnerID != owner {
		return repo.ErrNotFound
	}
	dep, ok := s.storage[dependsOnID]
	if !ok || dep.OwnerID != owner {
		return repo.ErrNotFound
	}

	if taskID == dependsOnID || s.reachable(dependsOnID, taskID) {
		logger.Warn("Repository: Отклонена циклическая зависимость")
		return repo.ErrCyclicDependency
	}

	for _, existing := range s.deps[taskID] {
		if existing == dependsOnID {
			return nil
		}
	}

	s.deps[taskID] = append(s.deps[taskID], dependsOnID)
	s.dependents[dependsOnID] = append(s.dependents[dependsOnID], taskID)
	return nil
}

// reachable - обход в глубину по рёбрам "зависит от", начиная с from
func (s *TaskStorage) reachable(from, target uuid.UUID) bool {
	visited := make(map[uuid.UUID]bool)
	stack := []uuid.UUID{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == target {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, s.deps[current]...)
	}
	return false
}

func (s *TaskStorage) RemoveDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[taskID]
	if !ok || t.OwnerID != owner {
		return repo.ErrNotFound
	}

	s.deps[taskID] = remove(s.deps[taskID], dependsOnID)
	s.dependents[dependsOnID] = remove(s.dependents[dependsOnID], taskID)
	return nil
}

func (s *TaskStorage) Dependencies(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok || t.OwnerID != owner {
		return nil, repo.ErrNotFound
	}
	return s.collect(s.deps[id]), nil
}

func (s *TaskStorage) Dependents(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok || t.OwnerID != owner {
		return nil, repo.ErrNotFound
	}
	return s.collect(s.dependents[id]), nil
}

func (s *TaskStorage) GetByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool { return true })
}

func (s *TaskStorage) GetByOwnerAndStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool { return t.Status == status })
}

func (s *TaskStorage) GetByOwnerAndPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool { return t.Priority == priority })
}

func (s *TaskStorage) GetOverdue(ctx context.Context, owner uuid.UUID, now time.Time) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool { return t.IsOverdue(now) })
}

func (s *TaskStorage) GetDueBetween(ctx context.Context, owner uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool {
		return t.DueDate != nil && !t.IsCompleted() &&
			t.DueDate.After(from) && t.DueDate.Before(to)
	})
}

func (s *TaskStorage) SearchTitle(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error) {
	lower := strings.ToLower(term)
	return s.filter(owner, func(t *task.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), lower)
	})
}

func (s *TaskStorage) SearchDescription(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error) {
	lower := strings.ToLower(term)
	return s.filter(owner, func(t *task.Task) bool {
		return strings.Contains(strings.ToLower(t.Description), lower)
	})
}

func (s *TaskStorage) GetTopLevel(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	return s.filter(owner, func(t *task.Task) bool { return t.ParentID == nil })
}

func (s *TaskStorage) GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	parent, ok := s.storage[parentID]
	if !ok || parent.OwnerID != owner {
		return nil, repo.ErrNotFound
	}
	return s.collect(s.children[parentID]), nil
}

// GetDueBefore - выборка без владельца для фонового воркера
func (s *TaskStorage) GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}
		t := s.storage[id]
		if t.DueDate != nil && !t.IsCompleted() && t.DueDate.Before(deadline) {
			res = append(res, t)
		}
	}
	return res, nil
}

func (s *TaskStorage) filter(owner uuid.UUID, keep func(*task.Task) bool) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.OwnerID == owner && keep(t) {
			res = append(res, t)
		}
	}
	return res, nil
}

func (s *TaskStorage) collect(ids []uuid.UUID) []*task.Task {
	res := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.storage[id]; ok {
			res = append(res, t)
		}
	}
	return res
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, val := range ids {
		if val == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
