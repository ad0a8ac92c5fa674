package queue

import (
	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/domain/task"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	StreamPrefix = "bricklink:taxonomy:stream:"
	EventPrefix  = "bricklink:taxonomy:session:"

	// Event streams keep roughly this many entries per session.
	eventStreamLen = 100
)

// StreamName returns the stream that carries tasks of taskType.
func StreamName(taskType string) string {
	return StreamPrefix + taskType
}

// EventStreamName returns the stream session results are published on.
func EventStreamName(sessionID string) string {
	return EventPrefix + sessionID
}

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, group, msgID string) error
	AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	PublishEvent(ctx context.Context, sessionID string, values map[string]interface{}) (string, error)
	EnsureStreamsExist(ctx context.Context) error
}

type RedisQueue struct {
	redisClient *redis.Client
	groupName   string
	blockFor    time.Duration
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (Queue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		groupName:   cfg.ConsumerGroup,
		blockFor:    5 * time.Second,
	}

	// Streams and groups must exist before workers start reading.
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) AddTask(ctx context.Context, task task.Task) (string, error) {
	taskType := task.TaskType()
	streamName := StreamName(taskType)

	values, err := taskValues(task)
	if err != nil {
		return "", err
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

func taskValues(task task.Task) (map[string]interface{}, error) {
	taskValue, err := task.TaskValue()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task: %w", err)
	}
	return map[string]interface{}{
		"task_type": task.TaskType(),
		"task_data": string(taskValue),
	}, nil
}

// PublishEvent appends values to the session's event stream, trimming old
// entries.
func (q *RedisQueue) PublishEvent(ctx context.Context, sessionID string, values map[string]interface{}) (string, error) {
	streamName := EventStreamName(sessionID)

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		MaxLen: eventStreamLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish event to Redis stream %s: %w", streamName, err)
	}
	return messageID, nil
}

// GetTask blocks for a short while and returns (nil, nil) when nothing arrived.
func (q *RedisQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.blockFor,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return &result[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	return q.redisClient.XAck(ctx, stream, group, msgID).Err()
}

func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	group,
	consumer,
	stream string,
	minIdleTime time.Duration,
) ([]redis.XMessage, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	return result, nil
}

// EnsureStreamsExist creates the stream and consumer group of every task type.
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Info("🔧 Creating Redis streams and consumer groups...")

	for _, taskType := range task.Types {
		streamName := StreamName(taskType)

		err := q.redisClient.XGroupCreateMkStream(ctx, streamName, q.groupName, "0").Err()
		if err != nil && !isBusyGroup(err) {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		if err != nil {
			log.Debugf("Group %s already exists for stream %s", q.groupName, streamName)
		}

		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	return nil
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}
