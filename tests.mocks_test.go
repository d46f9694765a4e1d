package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book Book) (Book, error)
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	UpdateFunc func(ctx context.Context, id string, in BookInput) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
	CloseFunc  func() error
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, in BookInput) (Book, error) {
	return m.UpdateFunc(ctx, id, in)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Close mocks the release of the repository resources.
func (m *MockBookStorage) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

type pushed struct {
	qid  string
	book Book
}

// MockQueue records pushed books and serves them back on Pop.
type MockQueue struct {
	mu     sync.Mutex
	pushes []pushed
	items  chan pushed
}

func NewMockQueue() *MockQueue {
	return &MockQueue{items: make(chan pushed, 16)}
}

func (mq *MockQueue) Push(_ context.Context, qid string, book Book) error {
	mq.mu.Lock()
	mq.pushes = append(mq.pushes, pushed{qid, book})
	mq.mu.Unlock()
	mq.items <- pushed{qid, book}
	return nil
}

func (mq *MockQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	select {
	case <-ctx.Done():
		return "", Book{}, ctx.Err()
	case p := <-mq.items:
		return p.qid, p.book, nil
	}
}

func (mq *MockQueue) Pushes() []pushed {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return append([]pushed(nil), mq.pushes...)
}

// newTestAPIHandler builds an api handler over the given storage with fixed clock and ids.
func newTestAPIHandler(storage BookStorage, config *Config) *APIHandler {
	clock := NewMockClocker()
	bs := NewBookService(zap.NewNop(), clock, storage, nil)
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler("test"), bs)
}
