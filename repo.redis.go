package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	ids    UIDHandler
	key    string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
// Books are kept as json values of a single hash named key.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, ids UIDHandler, key string) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		ids:    ids,
		key:    key,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

func (rs *redisBookStorage) save(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, rs.key, book.ID.String(), bookBytes).Err()
}

// Add inserts a new book record. A missing id is generated.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	if book.ID == "" {
		book.ID = BookID(rs.ids.Generate(BookIDPrefix))
	}
	return book, rs.save(ctx, book)
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, rs.key, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, rs.key, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// maxUpdateRetries bounds optimistic update attempts on a busy hash.
const maxUpdateRetries = 10

// Update replaces the editable fields of an existing book record. The hash
// is watched so a concurrent delete aborts the write instead of reviving it.
func (rs *redisBookStorage) Update(ctx context.Context, id string, in BookInput) (Book, error) {
	var book Book
	txf := func(tx *redis.Tx) error {
		bookJSONString, err := tx.HGet(ctx, rs.key, id).Result()
		if err == redis.Nil {
			return ErrBookNotFound
		}
		if err != nil {
			return err
		}
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return err
		}
		book = in.Apply(book)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rs.key, id, bookBytes)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := rs.client.Watch(ctx, txf, rs.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Book{}, err
		}
		return book, nil
	}
	return Book{}, fmt.Errorf("update of book %s: %w", id, redis.TxFailedErr)
}

// GetAll retrieves a list of all books stored in the redis database.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	values, err := rs.client.HVals(ctx, rs.key).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	for _, bookJSONString := range values {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	SortBooksByCreation(books)
	return books, nil
}

// Close is a no-op, the redis client is shared and closed by the app.
func (rs *redisBookStorage) Close() error {
	return nil
}
