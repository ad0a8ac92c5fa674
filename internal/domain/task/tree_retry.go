package task

import "bricklink/taxonomy/internal/domain"

type TreeRetryTask struct {
	CategoryType domain.CategoryType `json:"category_type"` // S, P, M, G, B
	RetryCount   int                 `json:"retry_count"`   // Attempts made so far
	Error        string              `json:"error"`         // Error message from the last failure
}

func (t *TreeRetryTask) TaskType() string {
	return "TreeRetryTask"
}

func (t *TreeRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
