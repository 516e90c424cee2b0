package provider

import (
	"context"
	"errors"
	"sort"

	"taskAssistant/internal/models/chat"
)

// Function - объявление функции во внутреннем каталоге; Parameters держит
// JSON-schema-подобное описание, которое каждый адаптер проецирует в свой формат
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Kind string

const (
	KindText         Kind = "text"
	KindFunctionCall Kind = "function_call"
)

// Result - размеченное объединение ответа провайдера: либо обычный текст,
// либо запрос на вызов функции
type Result struct {
	Kind          Kind
	Content       string
	Name          string
	ArgumentsJSON string
}

var (
	// транспортная ошибка, не-2xx или нечитаемое тело
	ErrUnavailable = errors.New("провайдер недоступен")
	// тело разобралось, но полезного содержимого в нём нет
	ErrEmptyResponse = errors.New("пустой ответ провайдера")
)

const SystemPrompt = "You are a helpful task management assistant. You can help users create, view, and manage their tasks. Always be helpful and provide clear responses. Ask the user about task fields if you are not able to determine them."

// Adapter прячет wire-протокол конкретного провайдера за одним интерфейсом.
// Адаптер не ретраит сам: политика повторов - забота вызывающего.
type Adapter interface {
	ID() string
	Converse(ctx context.Context, history []*chat.Message, catalog []Function) (*Result, error)
}

type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
