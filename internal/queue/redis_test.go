package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/domain/task"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedisAddrEnv points the stream tests at a disposable Redis. The tests
// flush its current database.
const testRedisAddrEnv = "TAXONOMY_TEST_REDIS_ADDR"

func TestStreamName(t *testing.T) {
	assert.Equal(t, "bricklink:taxonomy:stream:ParseCatalogTreeTask", StreamName("ParseCatalogTreeTask"))
	assert.Equal(t, "bricklink:taxonomy:session:abc", EventStreamName("abc"))
}

func TestIsBusyGroup(t *testing.T) {
	assert.True(t, isBusyGroup(errors.New("BUSYGROUP Consumer Group name already exists")))
	assert.False(t, isBusyGroup(errors.New("NOGROUP No such key")))
}

func TestTaskValues(t *testing.T) {
	values, err := taskValues(&task.TreeRetryTask{CategoryType: domain.CategoryTypeSet, RetryCount: 3, Error: "boom"})
	require.NoError(t, err)

	assert.Equal(t, "TreeRetryTask", values["task_type"])
	assert.JSONEq(t, `{"category_type":"S","retry_count":3,"error":"boom"}`, values["task_data"].(string))
	assert.Len(t, values, 2)
}

func TestRedisQueue_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	ctx := context.Background()

	_, err := NewRedisQueue(ctx, rdb, config.RedisConfig{ConsumerGroup: "g"})
	assert.ErrorContains(t, err, "failed to ensure streams exist")

	q := &RedisQueue{redisClient: rdb, groupName: "g", blockFor: time.Millisecond}
	_, err = q.AddTask(ctx, &task.ParseCatalogTreeTask{CategoryType: domain.CategoryTypePart})
	assert.ErrorContains(t, err, "failed to add task to Redis stream "+StreamName("ParseCatalogTreeTask"))

	_, err = q.GetTask(ctx, "g", "c", StreamName("ParseCatalogTreeTask"))
	assert.ErrorContains(t, err, "failed to read from Redis stream")

	_, err = q.PublishEvent(ctx, "abc", map[string]interface{}{"action": "open"})
	assert.ErrorContains(t, err, "failed to publish event to Redis stream "+EventStreamName("abc"))
}

func newTestQueue(t *testing.T) (*RedisQueue, *redis.Client) {
	t.Helper()
	addr := os.Getenv(testRedisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set; skipping Redis stream test", testRedisAddrEnv)
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(ctx).Err())

	q, err := NewRedisQueue(ctx, rdb, config.RedisConfig{ConsumerGroup: "test_group"})
	require.NoError(t, err)

	rq := q.(*RedisQueue)
	rq.blockFor = 50 * time.Millisecond
	return rq, rdb
}

func TestRedisQueue_AddGetAck(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()
	stream := StreamName("ParseCatalogTreeTask")

	id, err := q.AddTask(ctx, &task.ParseCatalogTreeTask{CategoryType: domain.CategoryTypeMinifig})
	require.NoError(t, err)

	msg, err := q.GetTask(ctx, "test_group", "worker-1", stream)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "ParseCatalogTreeTask", msg.Values["task_type"])
	assert.JSONEq(t, `{"category_type":"M"}`, msg.Values["task_data"].(string))

	require.NoError(t, q.AckTask(ctx, stream, "test_group", msg.ID))
	pending, err := rdb.XPending(ctx, stream, "test_group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	msg, err = q.GetTask(ctx, "test_group", "worker-1", stream)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestRedisQueue_AutoClaimIdleMessage(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	stream := StreamName("TreeRetryTask")

	id, err := q.AddTask(ctx, &task.TreeRetryTask{CategoryType: domain.CategoryTypeGear, RetryCount: 1})
	require.NoError(t, err)

	msg, err := q.GetTask(ctx, "test_group", "crashed", stream)
	require.NoError(t, err)
	require.NotNil(t, msg)

	time.Sleep(30 * time.Millisecond)
	claimed, err := q.AutoClaim(ctx, "test_group", "rescuer", stream, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, id, claimed[0].ID)
}

func TestRedisQueue_EnsureStreamsExistIsRepeatable(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnsureStreamsExist(ctx))
	for _, taskType := range task.Types {
		groups, err := rdb.XInfoGroups(ctx, StreamName(taskType)).Result()
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "test_group", groups[0].Name)
	}
}

func TestRedisQueue_PublishEvent(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()

	_, err := q.PublishEvent(ctx, "s-1", map[string]interface{}{"action": "check", "status": "ok"})
	require.NoError(t, err)

	entries, err := rdb.XRange(ctx, EventStreamName("s-1"), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "check", entries[0].Values["action"])
	assert.Equal(t, "ok", entries[0].Values["status"])
}
