package task

import "bricklink/taxonomy/internal/domain"

type ParseCatalogTreeTask struct {
	CategoryType domain.CategoryType `json:"category_type"`
}

func (t *ParseCatalogTreeTask) TaskType() string {
	return "ParseCatalogTreeTask"
}

func (t *ParseCatalogTreeTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
