package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oncestock/internal/domain"
	"oncestock/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskSnapshot = "snapshot"
	TaskMovement = "movement"
)

// movementTaskPayload is persisted in SyncTask.Payload as JSON.
type movementTaskPayload struct {
	Movement *models.Movement `json:"movement,omitempty"`
}

// SyncWorker consumes sync_queue tasks and mirrors them to Google Sheets.
// Tasks survive restarts in SQLite; redis, when available, only provides a
// faster wake-up path than the poll loop.
type SyncWorker struct {
	repo          domain.Repository
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewSyncWorker builds a worker with sane defaults.
func NewSyncWorker(repo domain.Repository, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &SyncWorker{
		repo:          repo,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "stock:sync:queue",
		deadLetterKey: "stock:sync:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueSnapshot schedules a full inventory mirror. Snapshots are cheap to
// coalesce, so enqueueing after every catalog change is fine.
func (w *SyncWorker) EnqueueSnapshot(ctx context.Context) error {
	return w.enqueue(ctx, models.SyncTask{
		TaskType:  TaskSnapshot,
		Payload:   "{}",
		Status:    models.SyncStatusPending,
		CreatedAt: time.Now(),
	})
}

// EnqueueMovement schedules one movement row append.
func (w *SyncWorker) EnqueueMovement(ctx context.Context, movement *models.Movement) error {
	if movement == nil || movement.ID == 0 {
		return errors.New("movement id is required")
	}

	payloadBytes, err := json.Marshal(movementTaskPayload{Movement: movement})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	return w.enqueue(ctx, models.SyncTask{
		TaskType:  TaskMovement,
		ProductID: movement.ProductID,
		Payload:   string(payloadBytes),
		Status:    models.SyncStatusPending,
		CreatedAt: time.Now(),
	})
}

func (w *SyncWorker) enqueue(ctx context.Context, task models.SyncTask) error {
	if err := w.repo.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first so an idle worker wakes up immediately.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("sync_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("sync_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sync_worker: started")
	defer w.logger.Info().Msg("sync_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.repo.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("sync_worker: fetch pending")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *SyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("sync_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("sync_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if err := w.handleTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark completed")
	}
}

func (w *SyncWorker) handleTask(ctx context.Context, task *models.SyncTask) error {
	switch task.TaskType {
	case TaskSnapshot:
		products, err := w.repo.ListProducts(ctx, "")
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return w.sheets.ReplaceInventorySheet(ctx, products)
	case TaskMovement:
		var payload movementTaskPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if payload.Movement == nil {
			return errors.New("movement payload missing")
		}
		return w.sheets.AppendMovement(ctx, payload.Movement)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark retry")
	}
}

func (w *SyncWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: deadletter push")
	}
}
