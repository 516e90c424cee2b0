package deepseek

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

const adapterID = "deepseek"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter говорит на диалекте chat/completions с массивом tool_calls:
// каталог заворачивается в tools, результаты функций идут с ролью tool
type Adapter struct {
	client *resty.Client
	cfg    Config
}

func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepinfra.com/v1/openai"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-ai/DeepSeek-R1-0528"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Adapter{
		client: resty.New().SetTimeout(cfg.Timeout),
		cfg:    cfg,
	}
}

func (a *Adapter) ID() string {
	return adapterID
}

type toolCall struct {
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) Converse(ctx context.Context, history []*chat.Message, catalog []provider.Function) (*provider.Result, error) {
	tools := make([]map[string]any, 0, len(catalog))
	for _, f := range catalog {
		tools = append(tools, map[string]any{
			"type":     "function",
			"function": f,
		})
	}

	body := map[string]any{
		"model":       a.cfg.Model,
		"messages":    projectHistory(history),
		"tools":       tools,
		"tool_choice": "auto",
		"max_tokens":  1000,
		"temperature": 0.7,
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(a.cfg.BaseURL + "/chat/completions")
	if err != nil {
		logger.Error("Provider: Ошибка запроса к DeepSeek", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	if resp.IsError() {
		logger.Warn("Provider: DeepSeek вернул ошибку", zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%w: статус %d", provider.ErrUnavailable, resp.StatusCode())
	}

	var parsed completionResponse
	if err := json.Unmarshal(resp.Bytes(), &parsed); err != nil {
		logger.Error("Provider: Нечитаемое тело ответа DeepSeek", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	if len(parsed.Choices) == 0 {
		return nil, provider.ErrEmptyResponse
	}

	message := parsed.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		// выполняется только первый вызов, остальные отбрасываются
		if len(message.ToolCalls) > 1 {
			logger.Warn("Provider: DeepSeek вернул несколько tool_calls",
				zap.Int("count", len(message.ToolCalls)))
		}
		call := message.ToolCalls[0].Function
		if call.Name != "" {
			return &provider.Result{
				Kind:          provider.KindFunctionCall,
				Name:          call.Name,
				ArgumentsJSON: call.Arguments,
			}, nil
		}
	}

	if message.Content == "" {
		return nil, provider.ErrEmptyResponse
	}

	return &provider.Result{
		Kind:    provider.KindText,
		Content: message.Content,
	}, nil
}

func projectHistory(history []*chat.Message) []map[string]any {
	messages := make([]map[string]any, 0, len(history)+1)
	messages = append(messages, map[string]any{
		"role":    "system",
		"content": provider.SystemPrompt,
	})

	for _, m := range history {
		if m.Role == chat.RoleFunction && m.FunctionName != "" {
			messages = append(messages, map[string]any{
				"role":    "tool",
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
