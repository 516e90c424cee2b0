package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/provider"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const adapterID = "openai"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter говорит на диалекте chat/completions с директивой function_call
type Adapter struct {
	client *resty.Client
	cfg    Config
}

func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Adapter{
		client: resty.New().SetTimeout(cfg.Timeout),
		cfg:    cfg,
	}
}

func (a *Adapter) ID() string {
	return adapterID
}

type completionMessage struct {
	Content      string `json:"content"`
	FunctionCall *struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function_call"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) Converse(ctx context.Context, history []*chat.Message, catalog []provider.Function) (*provider.Result, error) {
	body := map[string]any{
		"model":         a.cfg.Model,
		"messages":      projectHistory(history),
		"functions":     catalog,
		"function_call": "auto",
		"max_tokens":    1000,
		"temperature":   0.7,
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(a.cfg.BaseURL + "/chat/completions")
	if err != nil {
		logger.Error("Provider: Ошибка запроса к OpenAI", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	if resp.IsError() {
		logger.Warn("Provider: OpenAI вернул ошибку", zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%w: статус %d", provider.ErrUnavailable, resp.StatusCode())
	}

	var parsed completionResponse
	if err := json.Unmarshal(resp.Bytes(), &parsed); err != nil {
		logger.Error("Provider: Нечитаемое тело ответа OpenAI", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	if len(parsed.Choices) == 0 {
		return nil, provider.ErrEmptyResponse
	}

	message := parsed.Choices[0].Message
	if message.FunctionCall != nil && message.FunctionCall.Name != "" {
		return &provider.Result{
			Kind:          provider.KindFunctionCall,
			Name:          message.FunctionCall.Name,
			ArgumentsJSON: message.FunctionCall.Arguments,
		}, nil
	}

	if message.Content == "" {
		return nil, provider.ErrEmptyResponse
	}

	return &provider.Result{
		Kind:    provider.KindText,
		Content: message.Content,
	}, nil
}

// projectHistory - проекция внутренней истории в формат OpenAI:
// function-сообщения требуют role=function и имя функции рядом с содержимым
func projectHistory(history []*chat.Message) []map[string]any {
	messages := make([]map[string]any, 0, len(history)+1)
	messages = append(messages, map[string]any{
		"role":    "system",
		"content": provider.SystemPrompt,
	})

	for _, m := range history {
		if m.Role == chat.RoleFunction && m.FunctionName != "" {
			messages = append(messages, map[string]any{
				"role":    "function",
				"name":    m.FunctionName,
				"content": m.Content,
			})
			continue
		}
		messages = append(messages, map[string]any{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}
	return messages
}
