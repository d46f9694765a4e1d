package main

import (
	"context"

	"go.uber.org/zap"
)

// BookReader is the read side of the books service used by the pages.
type BookReader interface {
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

type BookServiceProvider interface {
	BookReader
	Add(ctx context.Context, in BookInput) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, in BookInput) (Book, error)
}

type BookService struct {
	logger    *zap.Logger
	clock     Clocker
	validator *Validator
	storage   BookStorage
	queue     Queuer
}

// NewBookService provides the books service. The queue is optional and
// receives every successful change when set.
func NewBookService(logger *zap.Logger, clock Clocker, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:    logger,
		clock:     clock,
		validator: NewValidator(),
		storage:   storage,
		queue:     queue,
	}
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID.String()), zap.Error(err))
	}
}

// Add validates the input and stores a new book. Backends which do not
// stamp rows themselves keep the creation time set here.
func (bs *BookService) Add(ctx context.Context, in BookInput) (Book, error) {
	if err := bs.validator.Validate(in); err != nil {
		return Book{}, err
	}
	book := in.Apply(Book{CreatedAt: FormatTimestamp(bs.clock.Now())})
	book, err := bs.storage.Add(ctx, book)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: BookID(id)})
	return nil
}

// Update validates the input like Add then updates the book matching id.
// ErrBookNotFound is returned when no book matched.
func (bs *BookService) Update(ctx context.Context, id string, in BookInput) (Book, error) {
	if err := bs.validator.Validate(in); err != nil {
		return Book{}, err
	}
	book, err := bs.storage.Update(ctx, id, in)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}
