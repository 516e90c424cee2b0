package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/task"
	repo "taskAssistant/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskColumns = `uuid, owner_id, title, description, status, priority,
		due_date, created_at, updated_at, completed_at, parent_id, version`

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, maxConns, minConns int32) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, owner_id, title, description, status, priority, due_date, created_at, parent_id, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8, 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		t.UUID,
		t.OwnerID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.ParentID,
	).Scan(&t.CreatedAt, &t.Version)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// CreateBatch вставляет все задачи в одной транзакции с общей меткой времени
func (s *Storage) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	query := `INSERT INTO tasks
				(uuid, owner_id, title, description, status, priority, due_date, created_at, parent_id, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`

	for _, t := range tasks {
		t.CreatedAt = now
		t.Version = 1
		if _, err := tx.Exec(ctx, query,
			t.UUID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, now, t.ParentID,
		); err != nil {
			logger.Error("Repository: Не удалось добавить задачу из батча", err)
			return fmt.Errorf("батч-вставка задач: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Storage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1 AND owner_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				due_date = $5,
				completed_at = $6,
				parent_id = $7,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $8 AND owner_id = $9 AND version = $10
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.CompletedAt,
		t.ParentID,
		t.UUID,
		t.OwnerID,
		t.Version,
	).Scan(&t.UpdatedAt, &t.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении задачи",
				zap.String("task_id", t.UUID.String()),
				zap.Int("expected_version", t.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Delete удаляет задачу; каскад по потомкам и чистку task_dependencies
// обеспечивают внешние ключи со схемой ON DELETE CASCADE
func (s *Storage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// AddDependency выполняет проверку цикла и вставку ребра атомарно:
// транзакция берёт advisory-блокировку по владельцу, поэтому два
// конкурентных вызова на одном графе сериализуются.
func (s *Storage) AddDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, owner); err != nil {
		return fmt.Errorf("advisory-блокировка: %w", err)
	}

	var owned int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE uuid = ANY($1::uuid[]) AND owner_id = $2`,
		[]uuid.UUID{taskID, dependsOnID}, owner,
	).Scan(&owned)
	if err != nil {
		return fmt.Errorf("проверка владельца: %w", err)
	}
	if taskID == dependsOnID {
		if owned == 0 {
			return repo.ErrNotFound
		}
		return repo.ErrCyclicDependency
	}
	if owned != 2 {
		return repo.ErrNotFound
	}

	// обход графа "зависит от" вперёд, начиная с dependsOn:
	// если встретилась сама задача - ребро замкнуло бы цикл
	var cycle bool
	err = tx.QueryRow(ctx, `
		WITH RECURSIVE chain AS (
			SELECT depends_on_id FROM task_dependencies WHERE task_id = $1
			UNION
			SELECT td.depends_on_id
			FROM task_dependencies td
			JOIN chain c ON td.task_id = c.depends_on_id
		)
		SELECT EXISTS (SELECT 1 FROM chain WHERE depends_on_id = $2)`,
		dependsOnID, taskID,
	).Scan(&cycle)
	if err != nil {
		return fmt.Errorf("проверка цикла: %w", err)
	}
	if cycle {
		logger.Warn("Repository: Отклонена циклическая зависимость",
			zap.String("task_id", taskID.String()),
			zap.String("depends_on_id", dependsOnID.String()))
		return repo.ErrCyclicDependency
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO task_dependencies (task_id, depends_on_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		taskID, dependsOnID,
	)
	if err != nil {
		return fmt.Errorf("вставка зависимости: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Storage) RemoveDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM task_dependencies td
		USING tasks t
		WHERE td.task_id = $1 AND td.depends_on_id = $2
		  AND t.uuid = td.task_id AND t.owner_id = $3`,
		taskID, dependsOnID, owner,
	)
	if err != nil {
		return fmt.Errorf("удаление зависимости: %w", err)
	}
	_ = tag
	return nil
}

func (s *Storage) Dependencies(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	if _, err := s.GetByID(ctx, owner, id); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks
		JOIN task_dependencies td ON td.depends_on_id = tasks.uuid
		WHERE td.task_id = $1
		ORDER BY tasks.created_at`
	return s.queryTasks(ctx, query, id)
}

func (s *Storage) Dependents(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	if _, err := s.GetByID(ctx, owner, id); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks
		JOIN task_dependencies td ON td.task_id = tasks.uuid
		WHERE td.depends_on_id = $1
		ORDER BY tasks.created_at`
	return s.queryTasks(ctx, query, id)
}

func (s *Storage) GetByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at`
	return s.queryTasks(ctx, query, owner)
}

func (s *Storage) GetByOwnerAndStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND status = $2 ORDER BY created_at`
	return s.queryTasks(ctx, query, owner, status)
}

func (s *Storage) GetByOwnerAndPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND priority = $2 ORDER BY created_at`
	return s.queryTasks(ctx, query, owner, priority)
}

func (s *Storage) GetOverdue(ctx context.Context, owner uuid.UUID, now time.Time) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1 AND due_date IS NOT NULL AND due_date < $2 AND status != 'completed'
		ORDER BY due_date`
	return s.queryTasks(ctx, query, owner, now)
}

func (s *Storage) GetDueBetween(ctx context.Context, owner uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1 AND due_date IS NOT NULL
		  AND due_date > $2 AND due_date < $3 AND status != 'completed'
		ORDER BY due_date`
	return s.queryTasks(ctx, query, owner, from, to)
}

func (s *Storage) SearchTitle(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks WHERE owner_id = $1 AND title ILIKE '%' || $2 || '%' ORDER BY created_at`
	return s.queryTasks(ctx, query, owner, term)
}

func (s *Storage) SearchDescription(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks WHERE owner_id = $1 AND description ILIKE '%' || $2 || '%' ORDER BY created_at`
	return s.queryTasks(ctx, query, owner, term)
}

func (s *Storage) GetTopLevel(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND parent_id IS NULL ORDER BY created_at`
	return s.queryTasks(ctx, query, owner)
}

func (s *Storage) GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*task.Task, error) {
	if _, err := s.GetByID(ctx, owner, parentID); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_id = $1 ORDER BY created_at`
	return s.queryTasks(ctx, query, parentID)
}

// GetDueBefore - выборка по всем владельцам для фонового воркера
func (s *Storage) GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE due_date IS NOT NULL AND due_date < $1 AND status != 'completed'
		ORDER BY due_date
		LIMIT $2`
	return s.queryTasks(ctx, query, deadline, limit)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
		&t.ParentID,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
