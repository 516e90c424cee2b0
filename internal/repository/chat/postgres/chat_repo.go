package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/chat"
	repo "taskAssistant/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const chatColumns = `uuid, owner_id, title, is_active, created_at, updated_at`
const messageColumns = `uuid, chat_id, role, content, model, function_name, function_args, seq, created_at`

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

	return &Storage{pool: pool}, nil
}

func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateChat(ctx context.Context, c *chat.Chat) error {
	query := `INSERT INTO chats (uuid, owner_id, title, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, NOW(), NOW())
			RETURNING is_active, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query, c.UUID, c.OwnerID, c.Title).
		Scan(&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать чат", err)
		return fmt.Errorf("создание чата: %w", err)
	}
	return nil
}

func (s *Storage) GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE uuid = $1 AND owner_id = $2`

	c, err := scanChat(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить чат", err)
		return nil, fmt.Errorf("получение чата: %w", err)
	}
	return c, nil
}

func (s *Storage) UpdateChat(ctx context.Context, c *chat.Chat) error {
	query := `UPDATE chats
			SET title = $1, is_active = $2, updated_at = NOW()
			WHERE uuid = $3 AND owner_id = $4
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query, c.Title, c.IsActive, c.UUID, c.OwnerID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить чат", err)
		return fmt.Errorf("обновление чата: %w", err)
	}
	return nil
}

// DeleteChat - жёсткое удаление, сообщения уходят каскадом по внешнему ключу
func (s *Storage) DeleteChat(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE uuid = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		logger.Error("Repository: Не удалось удалить чат", err)
		return fmt.Errorf("удаление чата: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error) {
	query := `SELECT ` + chatColumns + `
		FROM chats WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC`
	return s.queryChats(ctx, query, owner)
}

func (s *Storage) SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error) {
	query := `SELECT ` + chatColumns + `
		FROM chats
		WHERE owner_id = $1 AND is_active = TRUE AND title ILIKE '%' || $2 || '%'
		ORDER BY updated_at DESC`
	return s.queryChats(ctx, query, owner, term)
}

// AppendMessage сериализует добавления в один чат: строка чата берётся
// FOR UPDATE, seq выдаётся внутри той же транзакции
func (s *Storage) AppendMessage(ctx context.Context, m *chat.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var chatID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT uuid FROM chats WHERE uuid = $1 FOR UPDATE`, m.ChatID).Scan(&chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("блокировка чата: %w", err)
	}

	query := `INSERT INTO chat_messages
			(uuid, chat_id, role, content, model, function_name, function_args, seq, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE chat_id = $2),
				NOW())
			RETURNING seq, created_at`

	err = tx.QueryRow(ctx, query,
		m.UUID, m.ChatID, m.Role, m.Content, m.Model, m.FunctionName, m.FunctionArgs,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить сообщение", err)
		return fmt.Errorf("добавление сообщения: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE chats SET updated_at = NOW() WHERE uuid = $1`, m.ChatID); err != nil {
		return fmt.Errorf("обновление чата: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Storage) Messages(ctx context.Context, chatID uuid.UUID, lastN int) ([]*chat.Message, error) {
	var query string
	args := []any{chatID}

	if lastN > 0 {
		// последние N, но в порядке возрастания
		query = `SELECT ` + messageColumns + ` FROM (
				SELECT ` + messageColumns + `
				FROM chat_messages WHERE chat_id = $1
				ORDER BY seq DESC
				LIMIT $2
			) latest ORDER BY seq`
		args = append(args, lastN)
	} else {
		query = `SELECT ` + messageColumns + ` FROM chat_messages WHERE chat_id = $1 ORDER BY seq`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить сообщения", err)
		return nil, fmt.Errorf("получение сообщений: %w", err)
	}
	defer rows.Close()

	messages := []*chat.Message{}
	for rows.Next() {
		m := &chat.Message{}
		err := rows.Scan(
			&m.UUID, &m.ChatID, &m.Role, &m.Content, &m.Model,
			&m.FunctionName, &m.FunctionArgs, &m.Seq, &m.CreatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования сообщения", zap.Error(err))
			continue
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return messages, nil
}

func (s *Storage) queryChats(ctx context.Context, query string, args ...any) ([]*chat.Chat, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить чаты", err)
		return nil, fmt.Errorf("получение чатов: %w", err)
	}
	defer rows.Close()

	chats := []*chat.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования чата", zap.Error(err))
			continue
		}
		chats = append(chats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return chats, nil
}

func scanChat(row pgx.Row) (*chat.Chat, error) {
	c := &chat.Chat{}
	err := row.Scan(&c.UUID, &c.OwnerID, &c.Title, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
