package task

import (
	"testing"

	"bricklink/taxonomy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalTask_TreeRetry(t *testing.T) {
	orig := &TreeRetryTask{
		CategoryType: domain.CategoryTypeGear,
		RetryCount:   2,
		Error:        "quota exceeded",
	}

	data, err := orig.TaskValue()
	require.NoError(t, err)
	assert.JSONEq(t, `{"category_type":"G","retry_count":2,"error":"quota exceeded"}`, string(data))

	got, err := UnmarshalTask[*TreeRetryTask](data)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{"ParseCatalogTreeTask", "TreeRetryTask", "SessionCommandTask"}, Types)
}

func TestUnmarshalTask_SessionCommand(t *testing.T) {
	data := []byte(`{"session_id":"0b6c7c1e-7a4f-4e8e-9d1c-3f1d2a9b5e10","action":"check","node_id":"5.6"}`)

	got, err := UnmarshalTask[*SessionCommandTask](data)
	require.NoError(t, err)
	assert.Equal(t, SessionCheck, got.Action)
	assert.Equal(t, "5.6", got.NodeID)
	assert.Empty(t, got.CategoryType)
}
