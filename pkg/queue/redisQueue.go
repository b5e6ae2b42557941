package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
	defaultPollInterval = 10 * time.Second
)

// RedisQueue keeps immediate tasks in a list and delayed ones in a sorted set scored by
// ExecuteAt. A poller moves due tasks from the set to the list.
type RedisQueue struct {
	client       *redis.Client
	config       *RedisQueueConfig
	retryManager *RetryManager
	dlqHandler   DLQHandler
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// RedisQueueConfig contains configuration for RedisQueue
type RedisQueueConfig struct {
	// Queue names
	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string
	DLQ             string

	// Behavior
	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	PollInterval time.Duration
}

// ConfigWithPrefix derives every queue name from one prefix, e.g. "camera_rental:tasks".
func ConfigWithPrefix(prefix, dlq string) *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:       prefix,
		DelayedQueue:    prefix + ":delayed",
		ProcessingQueue: prefix + ":processing",
		DLQ:             dlq,
		MaxRetries:      defaultMaxRetries,
		BaseDelay:       defaultBaseDelay,
		QueueTimeout:    defaultQueueTimeout,
		PollInterval:    defaultPollInterval,
	}
}

// NewRedisQueue wires a queue onto an existing client. The client stays owned by the caller.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig, retryManager *RetryManager, dlqHandler DLQHandler) *RedisQueue {
	if cfg == nil {
		cfg = ConfigWithPrefix("camera_rental:tasks", "camera_rental:dlq")
	}
	if retryManager == nil {
		retryManager = NewRetryManager(cfg.MaxRetries, cfg.BaseDelay)
	}
	if dlqHandler == nil {
		dlqHandler = NewDefaultDLQHandler(client, cfg.DLQ, cfg.MainQueue)
	}

	logrus.WithFields(logrus.Fields{
		"main":    cfg.MainQueue,
		"delayed": cfg.DelayedQueue,
		"dlq":     cfg.DLQ,
	}).Info("RedisQueue initialized")

	return &RedisQueue{
		client:       client,
		config:       cfg,
		retryManager: retryManager,
		dlqHandler:   dlqHandler,
		stopChan:     make(chan struct{}),
	}
}

func (r *RedisQueue) DLQ() DLQHandler {
	return r.dlqHandler
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := r.prepareTask(task); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return r.push(ctx, task)
}

// PublishOnce publishes the task unless one with the same DedupKey was published within ttl.
// It reports whether the task was enqueued.
func (r *RedisQueue) PublishOnce(ctx context.Context, task *Task, ttl time.Duration) (bool, error) {
	if task == nil || task.DedupKey == "" {
		return false, fmt.Errorf("dedup key is required")
	}

	ok, err := r.client.SetNX(ctx, r.config.MainQueue+":dedup:"+task.DedupKey, task.ExecuteAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve dedup key: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := r.Publish(ctx, task); err != nil {
		r.client.Del(ctx, r.config.MainQueue+":dedup:"+task.DedupKey)
		return false, err
	}
	return true, nil
}

func (r *RedisQueue) push(ctx context.Context, task *Task) error {
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.ExecuteAt.After(time.Now()) {
		err = r.client.ZAdd(ctx, r.config.DelayedQueue, &redis.Z{
			Score:  float64(task.ExecuteAt.Unix()),
			Member: taskData,
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"task_id":    task.ID,
			"type":       task.Type,
			"execute_at": task.ExecuteAt.Format(time.RFC3339),
		}).Debug("Task scheduled")
		return nil
	}

	if err := r.client.LPush(ctx, r.config.MainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish immediate task: %w", err)
	}

	logrus.WithFields(logrus.Fields{"task_id": task.ID, "type": task.Type}).Debug("Task published to main queue")
	return nil
}

// Subscribe starts the delayed-task poller and the consumer loop
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	logrus.Info("RedisQueue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
			if _, err := r.processNext(ctx, handler); err != nil {
				logrus.WithError(err).Error("Error processing task")
				select {
				case <-time.After(time.Second): // backoff on error
				case <-ctx.Done():
					return
				case <-r.stopChan:
					return
				}
			}
		}
	}
}

// processNext runs at most one task and reports whether one was taken off the queue.
func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) (bool, error) {
	// Move the task to the processing list atomically so a crash leaves it recoverable
	taskData, err := r.client.BRPopLPush(ctx, r.config.MainQueue, r.config.ProcessingQueue, r.config.QueueTimeout).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to move task to processing queue: %w", err)
	}
	defer func() {
		if err := r.client.LRem(ctx, r.config.ProcessingQueue, 1, taskData).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to remove task from processing queue")
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		r.dlqHandler.HandleFailedTask(ctx, &Task{
			ID:        "corrupted_" + uuid.NewString(),
			Type:      "corrupted",
			Data:      map[string]interface{}{"raw_data": taskData},
			CreatedAt: time.Now(),
		}, fmt.Errorf("invalid task format: %w", err))
		return true, nil
	}

	task.Attempts++
	log := logrus.WithFields(logrus.Fields{
		"task_id": task.ID,
		"type":    task.Type,
		"attempt": task.Attempts,
	})

	herr := handler(&task)
	if herr == nil {
		log.Info("Task completed successfully")
		return true, nil
	}

	retry, delay := r.retryManager.ShouldRetry(&task, herr)
	if !retry {
		log.WithError(herr).Warn("Task failed permanently")
		r.dlqHandler.HandleFailedTask(ctx, &task, herr)
		return true, nil
	}

	log.WithError(herr).WithField("retry_in", delay.String()).Warn("Task failed, rescheduling")
	task.ExecuteAt = time.Now().Add(delay)
	if err := r.push(ctx, &task); err != nil {
		r.dlqHandler.HandleFailedTask(ctx, &task, fmt.Errorf("reschedule failed: %w (original: %v)", err, herr))
	}
	return true, nil
}

func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case now := <-ticker.C:
			if _, err := r.moveReadyDelayedTasks(ctx, now); err != nil {
				logrus.WithError(err).Error("Failed to process delayed tasks")
			}
		}
	}
}

// moveReadyDelayedTasks moves tasks due at or before now to the main queue. ZRem decides
// which poller owns a task when several instances race.
func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context, now time.Time) (int, error) {
	tasks, err := r.client.ZRangeByScore(ctx, r.config.DelayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed tasks: %w", err)
	}

	moved := 0
	for _, taskData := range tasks {
		removed, err := r.client.ZRem(ctx, r.config.DelayedQueue, taskData).Result()
		if err != nil {
			return moved, fmt.Errorf("failed to claim delayed task: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := r.client.LPush(ctx, r.config.MainQueue, taskData).Err(); err != nil {
			return moved, fmt.Errorf("failed to move delayed task: %w", err)
		}
		moved++
	}

	if moved > 0 {
		logrus.WithField("count", moved).Info("Moved delayed tasks to main queue")
	}
	return moved, nil
}

// prepareTask sets defaults
func (r *RedisQueue) prepareTask(task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if task.ExecuteAt.IsZero() {
		task.ExecuteAt = time.Now()
	}
	return task.Validate()
}

// QueueStats contains statistics about queue state
type QueueStats struct {
	MainQueue       int64     `json:"main_queue"`
	DelayedQueue    int64     `json:"delayed_queue"`
	ProcessingQueue int64     `json:"processing_queue"`
	DLQ             int64     `json:"dlq"`
	Timestamp       time.Time `json:"timestamp"`
}

// Stats returns current queue lengths
func (r *RedisQueue) Stats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()

	mainLen := pipe.LLen(ctx, r.config.MainQueue)
	delayedLen := pipe.ZCard(ctx, r.config.DelayedQueue)
	processingLen := pipe.LLen(ctx, r.config.ProcessingQueue)
	dlqLen := pipe.ZCard(ctx, r.config.DLQ)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		DLQ:             dlqLen.Val(),
		Timestamp:       time.Now(),
	}, nil
}

// Close stops the subscriber loops and waits for them
func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()

	logrus.Info("RedisQueue closed")
	return nil
}
