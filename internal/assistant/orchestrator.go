package assistant

import (
	"context"
	"strings"
	"sync"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultModel         = "openai"
	defaultHistoryWindow = 10
	maxDerivedTitleLen   = 50

	unavailableReply = "Sorry, the assistant is temporarily unavailable. Please try again later."
)

// ChatSessions - операции над чатами, нужные оркестратору
type ChatSessions interface {
	GetOrCreateChat(ctx context.Context, owner uuid.UUID, chatID *uuid.UUID, title string) (*chat.Chat, error)
	AddMessage(ctx context.Context, c *chat.Chat, role chat.Role, content, model string) (*chat.Message, error)
	AddFunctionMessage(ctx context.Context, c *chat.Chat, functionName, functionArgs, result string) (*chat.Message, error)
	History(ctx context.Context, c *chat.Chat, maxMessages int) ([]*chat.Message, error)
}

// Orchestrator ведёт один ход диалога: сообщение пользователя, обращение к
// провайдеру, при необходимости вызов функции, и итоговый ответ.
// Ходы в рамках одного чата сериализуются, иначе порядок сообщений
// в истории зависел бы от гонки
type Orchestrator struct {
	sessions      ChatSessions
	registry      *provider.Registry
	dispatcher    *Dispatcher
	historyWindow int

	mtx   sync.Mutex
	locks map[uuid.UUID]*chatLock
}

// chatLock живёт только пока по чату идут ходы: счётчик ссылок
// убирает запись из карты, когда последний ход завершился
type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrchestrator(sessions ChatSessions, registry *provider.Registry, dispatcher *Dispatcher, historyWindow int) *Orchestrator {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}

	return &Orchestrator{
		sessions:      sessions,
		registry:      registry,
		dispatcher:    dispatcher,
		historyWindow: historyWindow,
		locks:         make(map[uuid.UUID]*chatLock),
	}
}

// TurnResult - итог одного хода диалога
type TurnResult struct {
	Response  string
	Model     string
	ChatID    uuid.UUID
	ChatTitle string
}

func (o *Orchestrator) Models() []string {
	return o.registry.IDs()
}

func (o *Orchestrator) SendMessage(ctx context.Context, owner uuid.UUID, chatID *uuid.UUID, message, model string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if model == "" {
		model = DefaultModel
	}
	adapter, ok := o.registry.Get(model)
	if !ok {
		return nil, ErrUnknownModel(model)
	}

	c, err := o.sessions.GetOrCreateChat(ctx, owner, chatID, deriveTitle(message))
	if err != nil {
		return nil, err
	}

	lock := o.lockChat(c.UUID)
	defer o.unlockChat(c.UUID, lock)

	if _, err := o.sessions.AddMessage(ctx, c, chat.RoleUser, message, model); err != nil {
		return nil, err
	}

	history, err := o.sessions.History(ctx, c, o.historyWindow)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Converse(ctx, history, Catalog())
	if err != nil {
		// сообщение пользователя уже в истории; ответ ассистента не пишем,
		// чтобы при повторе модель увидела чистый контекст
		logger.Warn("Assistant: Провайдер не ответил",
			zap.String("model", model),
			zap.String("chat_id", c.UUID.String()),
			zap.Error(err))
		return &TurnResult{
			Response:  unavailableReply,
			Model:     model,
			ChatID:    c.UUID,
			ChatTitle: c.Title,
		}, nil
	}

	var response string
	switch result.Kind {
	case provider.KindFunctionCall:
		response = o.dispatcher.Dispatch(ctx, owner, result.Name, result.ArgumentsJSON)
		if _, err := o.sessions.AddFunctionMessage(ctx, c, result.Name, result.ArgumentsJSON, response); err != nil {
			return nil, err
		}
		if _, err := o.sessions.AddMessage(ctx, c, chat.RoleAssistant, response, model); err != nil {
			return nil, err
		}
	default:
		response = result.Content
		if _, err := o.sessions.AddMessage(ctx, c, chat.RoleAssistant, response, model); err != nil {
			return nil, err
		}
	}

	return &TurnResult{
		Response:  response,
		Model:     model,
		ChatID:    c.UUID,
		ChatTitle: c.Title,
	}, nil
}

func (o *Orchestrator) lockChat(chatID uuid.UUID) *chatLock {
	o.mtx.Lock()
	lock, ok := o.locks[chatID]
	if !ok {
		lock = &chatLock{}
		o.locks[chatID] = lock
	}
	lock.refs++
	o.mtx.Unlock()

	lock.mu.Lock()
	return lock
}

func (o *Orchestrator) unlockChat(chatID uuid.UUID, lock *chatLock) {
	lock.mu.Unlock()

	o.mtx.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(o.locks, chatID)
	}
	o.mtx.Unlock()
}

// deriveTitle строит название нового чата из первого сообщения
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= maxDerivedTitleLen {
		return message
	}
	return string(runes[:maxDerivedTitleLen]) + "..."
}
