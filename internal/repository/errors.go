package repository

import "errors"

var (
	ErrNotFound         = errors.New("запись не найдена")
	ErrVersionConflict  = errors.New("конфликт версий")
	ErrCyclicDependency = errors.New("зависимость образует цикл")
)
