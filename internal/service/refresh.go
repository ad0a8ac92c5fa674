package service

import (
	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/domain/task"
	"bricklink/taxonomy/internal/queue"
	"bricklink/taxonomy/internal/selection"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxTreeRetries = 10

// RefreshAll enqueues a tree refresh for every catalog type.
func (s *Service) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, categoryType := range domain.CategoryTypes {
		categoryType := categoryType
		g.Go(func() error {
			if _, err := s.queue.AddTask(ctx, &task.ParseCatalogTreeTask{CategoryType: categoryType}); err != nil {
				log.Errorf("❌ Failed to enqueue tree refresh for %s: %v", categoryType, err)
				return err
			}
			log.Debugf("Queued tree refresh for %s", categoryType.GetCategoryName())
			return nil
		})
	}

	return g.Wait()
}

// RunRefreshLoop re-enqueues all trees every interval until ctx ends.
func (s *Service) RunRefreshLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				log.Errorf("❌ Scheduled tree refresh failed: %v", err)
			}
		}
	}
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamName((&task.ParseCatalogTreeTask{}).TaskType()), "main")
	s.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), queue.StreamName((&task.TreeRetryTask{}).TaskType()), "retry")
	// A single consumer keeps each session's commands in arrival order.
	s.runWorkersForStream(ctx, &wg, 1, queue.StreamName((&task.SessionCommandTask{}).TaskType()), "session")

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Reclaims messages left pending by crashed consumers.
	if s.minIdleTime > 0 {
		wg.Add(1)
		go s.autoClaim(ctx, wg, streamName, workerType)
	}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
				}

				msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
				if err != nil {
					if ctx.Err() == nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
					}
					continue
				}
				if msg == nil {
					continue
				}
				if err := s.processMessage(ctx, msg); err != nil {
					log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
				}
			}
		}(i + 1)
	}
}

func (s *Service) autoClaim(ctx context.Context, wg *sync.WaitGroup, streamName, workerType string) {
	defer wg.Done()
	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
			claimed, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
			if err != nil {
				log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
				continue
			}
			for _, msg := range claimed {
				msg := msg
				if err := s.processMessage(ctx, &msg); err != nil {
					log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
				}
			}
		}
	}
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	switch taskType {
	case (&task.ParseCatalogTreeTask{}).TaskType():
		treeTask, err := task.UnmarshalTask[*task.ParseCatalogTreeTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal tree task data: %w", err)
		}
		if err := s.refreshTree(ctx, treeTask.CategoryType); err != nil {
			if err := s.scheduleRetry(ctx, treeTask.CategoryType, 0, err); err != nil {
				return err
			}
		}

	case (&task.TreeRetryTask{}).TaskType():
		retryTask, err := task.UnmarshalTask[*task.TreeRetryTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal retry task data: %w", err)
		}
		log.Infof("🔄 Retrying %s tree (attempt %d)", retryTask.CategoryType, retryTask.RetryCount+1)
		if err := s.refreshTree(ctx, retryTask.CategoryType); err != nil {
			if err := s.scheduleRetry(ctx, retryTask.CategoryType, retryTask.RetryCount, err); err != nil {
				return err
			}
		}

	case (&task.SessionCommandTask{}).TaskType():
		cmdTask, err := task.UnmarshalTask[*task.SessionCommandTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal session command data: %w", err)
		}
		// Acked even when the event is lost: the command has already been applied.
		if err := s.handleSessionCommand(ctx, cmdTask); err != nil {
			log.Errorf("❌ Failed to publish result of %s for session %s: %v", cmdTask.Action, cmdTask.SessionID, err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, queue.StreamName(taskType), s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// refreshTree fetches a fresh tree, caches it and installs it in every open
// session of that catalog type.
func (s *Service) refreshTree(ctx context.Context, categoryType domain.CategoryType) error {
	tree, err := s.client.GetCategoryTree(ctx, categoryType)
	if err != nil {
		return err
	}

	if err := s.trees.SetTree(ctx, categoryType, tree); err != nil {
		log.Warnf("⚠️ Failed to cache %s category tree: %v", categoryType, err)
	}

	sessions := s.sessions.ByCategoryType(categoryType)
	for _, sess := range sessions {
		sess.Dispatch(selection.InitialStateChange(tree))
	}

	log.Infof("✅ Refreshed %s tree: %d categories, %d open sessions updated",
		categoryType.GetCategoryName(), len(tree)-1, len(sessions))
	return nil
}

func (s *Service) scheduleRetry(ctx context.Context, categoryType domain.CategoryType, attempts int, cause error) error {
	attempts++
	if attempts > maxTreeRetries {
		log.Errorf("❌ Giving up on %s tree after %d attempts: %v", categoryType, attempts-1, cause)
		return nil
	}

	retryTask := &task.TreeRetryTask{
		CategoryType: categoryType,
		RetryCount:   attempts,
		Error:        cause.Error(),
	}
	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		log.Errorf("❌ Failed to add retry task for %s tree: %v", categoryType, err)
		return err
	}

	log.Warnf("🔄 Added %s tree to retry queue due to error: %v", categoryType, cause)
	return nil
}
