package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/chat"
	rep "taskAssistant/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatSessionService struct {
	repo ChatRepository
}

func NewChatSessionService(repo ChatRepository) *ChatSessionService {
	return &ChatSessionService{repo: repo}
}

func (s *ChatSessionService) CreateChat(ctx context.Context, owner uuid.UUID, title string) (*chat.Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = chat.DefaultTitle
	}

	c := &chat.Chat{
		UUID:    uuid.New(),
		OwnerID: owner,
		Title:   title,
	}
	if err := s.repo.CreateChat(ctx, c); err != nil {
		return nil, fmt.Errorf("создание чата: %w", err)
	}

	logger.Info("Service: Чат создан",
		zap.String("chat_id", c.UUID.String()),
		zap.String("owner_id", owner.String()))
	return c, nil
}

// GetOrCreateChat возвращает активный чат вызывающего по id; чужой,
// неактивный или неизвестный id молча даёт новый чат - сообщения никогда
// не попадают в чужую историю
func (s *ChatSessionService) GetOrCreateChat(ctx context.Context, owner uuid.UUID, chatID *uuid.UUID, title string) (*chat.Chat, error) {
	if chatID != nil {
		existing, err := s.repo.GetChat(ctx, owner, *chatID)
		if err == nil && existing.IsActive {
			return existing, nil
		}
		if err != nil && !errors.Is(err, rep.ErrNotFound) {
			return nil, fmt.Errorf("получение чата: %w", err)
		}
	}

	return s.CreateChat(ctx, owner, title)
}

func (s *ChatSessionService) GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error) {
	c, err := s.repo.GetChat(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("чат", id.String())
		}
		return nil, fmt.Errorf("получение чата: %w", err)
	}
	return c, nil
}

func (s *ChatSessionService) AddMessage(ctx context.Context, c *chat.Chat, role chat.Role, content, model string) (*chat.Message, error) {
	m := &chat.Message{
		UUID:    uuid.New(),
		ChatID:  c.UUID,
		Role:    role,
		Content: content,
		Model:   model,
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("добавление сообщения: %w", err)
	}
	return m, nil
}

func (s *ChatSessionService) AddFunctionMessage(ctx context.Context, c *chat.Chat, functionName, functionArgs, result string) (*chat.Message, error) {
	m := &chat.Message{
		UUID:         uuid.New(),
		ChatID:       c.UUID,
		Role:         chat.RoleFunction,
		Content:      result,
		FunctionName: functionName,
		FunctionArgs: functionArgs,
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("добавление function-сообщения: %w", err)
	}
	return m, nil
}

// History возвращает сообщения по возрастанию; maxMessages > 0 ограничивает
// контекст последними N записями, чтобы не раздувать запрос к провайдеру
func (s *ChatSessionService) History(ctx context.Context, c *chat.Chat, maxMessages int) ([]*chat.Message, error) {
	messages, err := s.repo.Messages(ctx, c.UUID, maxMessages)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("чат", c.UUID.String())
		}
		return nil, fmt.Errorf("получение истории: %w", err)
	}
	return messages, nil
}

func (s *ChatSessionService) ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error) {
	chats, err := s.repo.ListChats(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("получение чатов: %w", err)
	}
	return chats, nil
}

func (s *ChatSessionService) SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error) {
	chats, err := s.repo.SearchChats(ctx, owner, term)
	if err != nil {
		return nil, fmt.Errorf("поиск чатов: %w", err)
	}
	return chats, nil
}

func (s *ChatSessionService) RenameChat(ctx context.Context, owner, id uuid.UUID, newTitle string) (*chat.Chat, error) {
	if strings.TrimSpace(newTitle) == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	c, err := s.GetChat(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	c.Title = newTitle
	if err := s.repo.UpdateChat(ctx, c); err != nil {
		return nil, fmt.Errorf("обновление чата: %w", err)
	}
	return c, nil
}

// ArchiveChat прячет чат из списков, история при этом сохраняется
func (s *ChatSessionService) ArchiveChat(ctx context.Context, owner, id uuid.UUID) error {
	c, err := s.GetChat(ctx, owner, id)
	if err != nil {
		return err
	}

	c.IsActive = false
	if err := s.repo.UpdateChat(ctx, c); err != nil {
		return fmt.Errorf("архивация чата: %w", err)
	}
	return nil
}

// DeleteChat - жёсткое удаление чата вместе с историей
func (s *ChatSessionService) DeleteChat(ctx context.Context, owner, id uuid.UUID) error {
	err := s.repo.DeleteChat(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("чат", id.String())
		}
		return fmt.Errorf("удаление чата: %w", err)
	}

	logger.Info("Service: Чат удалён", zap.String("chat_id", id.String()))
	return nil
}
