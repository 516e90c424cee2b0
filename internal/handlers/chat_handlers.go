package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskAssistant/internal/handlers/dto"
	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/chat"

	"go.uber.org/zap"
)

type ChatHandler struct {
	ChatService ChatService
	Assistant   Assistant
}

func NewChatHandler(chatService ChatService, assistant Assistant) *ChatHandler {
	return &ChatHandler{
		ChatService: chatService,
		Assistant:   assistant,
	}
}

func (s *ChatHandler) PostSendMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	chatID := request.ChatID
	if chatID == nil && request.ChatTitle != "" {
		// явное название имеет смысл только для нового чата
		c, err := s.ChatService.CreateChat(r.Context(), owner, request.ChatTitle)
		if err != nil {
			if handleBusinessError(w, err) {
				return
			}
			logger.Error("HTTP: Ошибка Service", err, zap.String("operation", "create_chat"))
			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		chatID = &c.UUID
	}

	result, err := s.Assistant.SendMessage(r.Context(), owner, chatID, request.Message, request.Model)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка ассистента", err,
			zap.String("operation", "send_message"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Ход диалога завершён",
		zap.String("chat_id", result.ChatID.String()),
		zap.String("model", result.Model),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("result", dto.SendMessageResponse{
		Response:  result.Response,
		Model:     result.Model,
		ChatID:    result.ChatID,
		ChatTitle: result.ChatTitle,
	}))
}

func (s *ChatHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	responseWithJSON(w, http.StatusOK, toPayload("models", s.Assistant.Models()))
}

func (s *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	c, err := s.ChatService.CreateChat(r.Context(), owner, request.Title)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_chat"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Чат создан",
		zap.String("chat_id", c.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("chat", dto.FromChat(c)))
}

func (s *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("search")

	var chats []*chat.Chat
	var err error
	if term != "" {
		chats, err = s.ChatService.SearchChats(r.Context(), owner, term)
	} else {
		chats, err = s.ChatService.ListChats(r.Context(), owner)
	}
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_chats"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("chats", dto.FromChatList(chats)))
}

func (s *ChatHandler) GetChatByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	c, err := s.ChatService.GetChat(r.Context(), owner, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_chat"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// история отдаётся целиком, окно контекста касается только провайдера
	messages, err := s.ChatService.History(r.Context(), c, 0)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_chat_history"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("chat", dto.FromChat(c)),
		toPayload("messages", dto.FromMessageList(messages)),
	)
}

func (s *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	c, err := s.ChatService.RenameChat(r.Context(), owner, id, request.Title)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "rename_chat"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Чат переименован",
		zap.String("chat_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("chat", dto.FromChat(c)))
}

func (s *ChatHandler) ArchiveChat(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.ChatService.ArchiveChat(r.Context(), owner, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err, zap.String("operation", "archive_chat"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("archived", id))
}

func (s *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.ChatService.DeleteChat(r.Context(), owner, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err, zap.String("operation", "delete_chat"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
