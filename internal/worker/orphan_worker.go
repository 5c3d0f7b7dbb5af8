package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/repository"
	"projectTracker/internal/service"

	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultInterval  = 5 * time.Minute
	defaultBatchSize = 100
	defaultWorkers   = 4
)

// удаляет задачи удаленных проектов и комментарии удаленных задач
type OrphanSweeper struct {
	repo      service.OrphanRepository
	interval  time.Duration
	batchSize int
	workers   int
}

type SweepResult struct {
	Tasks    int
	Comments int
}

func NewOrphanSweeper(repo service.OrphanRepository, interval *time.Duration, batchSize *int) *OrphanSweeper {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = defaultInterval
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = defaultBatchSize
	} else {
		batchToSet = *batchSize
	}
	return &OrphanSweeper{
		repo:      repo,
		interval:  intervalToSet,
		batchSize: batchToSet,
		workers:   defaultWorkers,
	}
}

func (w *OrphanSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Поиск осиротевших записей", zap.Time("started_at", time.Now()))
			if _, err := w.Sweep(ctx); err != nil {
				logger.Warn("Worker: Очистка завершилась с ошибкой", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая очистка останавливается")
			return
		}
	}
}

// задачи удаляются раньше комментариев, их комментарии уходят в этом же проходе
func (w *OrphanSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var result SweepResult

	tasks, err := w.repo.ListOrphanTasks(ctx, w.batchSize)
	if err != nil {
		return result, fmt.Errorf("получение осиротевших задач: %w", err)
	}
	taskIDs := make([]primitive.ObjectID, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}
	result.Tasks, err = w.deleteAll(ctx, taskIDs, w.repo.DeleteTask)
	if err != nil {
		return result, fmt.Errorf("удаление задач: %w", err)
	}

	comments, err := w.repo.ListOrphanComments(ctx, w.batchSize)
	if err != nil {
		return result, fmt.Errorf("получение осиротевших комментариев: %w", err)
	}
	commentIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}
	result.Comments, err = w.deleteAll(ctx, commentIDs, w.repo.DeleteComment)
	if err != nil {
		return result, fmt.Errorf("удаление комментариев: %w", err)
	}

	logger.Info(
		"Worker: Завершение очистки",
		zap.Duration("ms", time.Since(start)),
		zap.Int("tasks", result.Tasks),
		zap.Int("comments", result.Comments),
	)
	return result, nil
}

func (w *OrphanSweeper) deleteAll(ctx context.Context, ids []primitive.ObjectID, del func(context.Context, primitive.ObjectID) error) (int, error) {
	var deleted atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(w.workers)
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			err := del(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				logger.Warn("Worker: Ошибка удаления записи", zap.String("id", id.Hex()), zap.Error(err))
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err := p.Wait()
	return int(deleted.Load()), err
}
