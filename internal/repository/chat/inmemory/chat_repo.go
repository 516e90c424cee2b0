package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskAssistant/internal/models/chat"
	repo "taskAssistant/internal/repository"

	"github.com/google/uuid"
)

// ChatStorage хранит чаты и их сообщения. Сообщения добавляются только в конец,
// seq растёт под write-lock, так что порядок воспроизведения равен порядку добавления
// даже при конкурентных запросах.
type ChatStorage struct {
	mtx      *sync.RWMutex
	chats    map[uuid.UUID]*chat.Chat
	messages map[uuid.UUID][]*chat.Message
}

func NewChatStorage() *ChatStorage {
	return &ChatStorage{
		mtx:      &sync.RWMutex{},
		chats:    make(map[uuid.UUID]*chat.Chat),
		messages: make(map[uuid.UUID][]*chat.Message),
	}
}

func (s *ChatStorage) CreateChat(ctx context.Context, c *chat.Chat) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.IsActive = true
	s.chats[c.UUID] = c
	s.messages[c.UUID] = []*chat.Message{}
	return nil
}

func (s *ChatStorage) GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.chats[id]
	if !ok || c.OwnerID != owner {
		return nil, repo.ErrNotFound
	}
	return c, nil
}

func (s *ChatStorage) UpdateChat(ctx context.Context, c *chat.Chat) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.chats[c.UUID]
	if !ok || existing.OwnerID != c.OwnerID {
		return repo.ErrNotFound
	}

	c.UpdatedAt = time.Now()
	s.chats[c.UUID] = c
	return nil
}

// DeleteChat - жёсткое удаление вместе со всеми сообщениями
func (s *ChatStorage) DeleteChat(ctx context.Context, owner, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.chats[id]
	if !ok || c.OwnerID != owner {
		return repo.ErrNotFound
	}

	delete(s.chats, id)
	delete(s.messages, id)
	return nil
}

func (s *ChatStorage) ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*chat.Chat{}
	for _, c := range s.chats {
		if c.OwnerID == owner && c.IsActive {
			res = append(res, c)
		}
	}

	// сначала недавно обновлённые
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (s *ChatStorage) SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error) {
	lower := strings.ToLower(term)

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*chat.Chat{}
	for _, c := range s.chats {
		if c.OwnerID == owner && c.IsActive && strings.Contains(strings.ToLower(c.Title), lower) {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (s *ChatStorage) AppendMessage(ctx context.Context, m *chat.Message) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.chats[m.ChatID]
	if !ok {
		return repo.ErrNotFound
	}

	m.Seq = int64(len(s.messages[m.ChatID]) + 1)
	m.CreatedAt = time.Now()
	s.messages[m.ChatID] = append(s.messages[m.ChatID], m)

	c.UpdatedAt = m.CreatedAt
	return nil
}

// Messages возвращает историю по возрастанию seq; lastN > 0 ограничивает
// выдачу последними N сообщениями
func (s *ChatStorage) Messages(ctx context.Context, chatID uuid.UUID, lastN int) ([]*chat.Message, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.chats[chatID]; !ok {
		return nil, repo.ErrNotFound
	}

	all := s.messages[chatID]
	if lastN > 0 && len(all) > lastN {
		all = all[len(all)-lastN:]
	}

	res := make([]*chat.Message, len(all))
	copy(res, all)
	return res, nil
}
