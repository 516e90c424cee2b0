package assistant

import "taskAssistant/internal/provider"

const (
	fnCreateTask         = "create_task"
	fnCreateMultiple     = "create_multiple_tasks"
	fnGetAllTasks        = "get_all_tasks"
	fnFilterTasks        = "filter_tasks"
)

// Значения enum даются в верхнем регистре - так их видит модель
var (
	priorityEnum = []string{"LOW", "MEDIUM", "HIGH", "URGENT"}
	statusEnum   = []string{"TODO", "IN_PROGRESS", "COMPLETED", "CANCELLED", "ON_HOLD"}
)

// Catalog возвращает объявления функций, которые модель может вызывать
func Catalog() []provider.Function {
	taskProperties := map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "The title of the task",
		},
		"description": map[string]any{
			"type":        "string",
			"description": "The description of the task",
		},
		"priority": map[string]any{
			"type":        "string",
			"enum":        priorityEnum,
			"description": "The priority of the task",
		},
		"dueDate": map[string]any{
			"type":        "string",
			"format":      "date-time",
			"description": "The due date of the task in ISO format",
		},
	}

	return []provider.Function{
		{
			Name:        fnCreateTask,
			Description: "Create a new task with title, description, priority and due date",
			Parameters: map[string]any{
				"type":       "object",
				"properties": taskProperties,
				"required":   []string{"title"},
			},
		},
		{
			Name:        fnCreateMultiple,
			Description: "Create multiple tasks at once",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tasks": map[string]any{
						"type":        "array",
						"description": "List of tasks to create",
						"items": map[string]any{
							"type":       "object",
							"properties": taskProperties,
							"required":   []string{"title"},
						},
					},
				},
				"required": []string{"tasks"},
			},
		},
		{
			Name:        fnGetAllTasks,
			Description: "Get all tasks of the current user",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        fnFilterTasks,
			Description: "Filter tasks by status, priority, overdue, due soon or search term",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type":        "string",
						"enum":        statusEnum,
						"description": "Filter by task status",
					},
					"priority": map[string]any{
						"type":        "string",
						"enum":        priorityEnum,
						"description": "Filter by task priority",
					},
					"overdue": map[string]any{
						"type":        "boolean",
						"description": "Show only overdue tasks",
					},
					"dueSoon": map[string]any{
						"type":        "integer",
						"description": "Show only tasks due within the given number of hours",
					},
					"searchTerm": map[string]any{
						"type":        "string",
						"description": "Search in task titles and descriptions",
					},
				},
			},
		},
	}
}
