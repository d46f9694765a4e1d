package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// popRetryDelay is the pause after a failed pop before trying again.
const popRetryDelay = time.Second

// mirrorConsumer replays queued book changes into a local repository.
type mirrorConsumer struct {
	logger     *zap.Logger
	queue      Queuer
	repo       BookStorage
	retryDelay time.Duration
}

func NewMirrorConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &mirrorConsumer{logger: logger, queue: q, repo: repo, retryDelay: popRetryDelay}
}

// Consume pops changes until ctx is done. Failures are logged and skipped.
func (mc *mirrorConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := mc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			mc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			mc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
				mc.logger.Info("consumer: retry wait: context is done: exit", zap.String("reason", ctx.Err().Error()))
				return nil
			case <-time.After(mc.retryDelay):
			}
			continue
		}

		mc.apply(ctx, qid, book)
	}
}

func (mc *mirrorConsumer) apply(ctx context.Context, qid string, book Book) {
	var err error
	switch qid {
	case CreateQueue:
		if _, err = mc.repo.Add(ctx, book); err != nil {
			mc.logger.Error("consumer: failed to create", zap.Any("book", book), zap.Error(err))
		}
	case UpdateQueue:
		in := BookInput{Title: book.Title, Summary: book.Summary, Comment: book.Comment}
		_, err = mc.repo.Update(ctx, book.ID.String(), in)
		if errors.Is(err, ErrBookNotFound) {
			// the mirror may have been created after the book.
			_, err = mc.repo.Add(ctx, book)
		}
		if err != nil {
			mc.logger.Error("consumer: failed to update", zap.Any("book", book), zap.Error(err))
		}
	case DeleteQueue:
		err = mc.repo.Delete(ctx, book.ID.String())
		if err != nil && !errors.Is(err, ErrBookNotFound) {
			mc.logger.Error("consumer: failed to delete", zap.String("id", book.ID.String()), zap.Error(err))
		}
	default:
		mc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.Any("book", book))
	}
}
