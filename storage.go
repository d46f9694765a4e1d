package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewBookStorage builds the books backend selected by the store driver.
// The redis client is only required by the redis driver.
func NewBookStorage(logger *zap.Logger, config *Config, redisClient *redis.Client, ids UIDHandler) (BookStorage, error) {
	switch config.Store.Driver {
	case SupabaseDriver:
		client, err := GetSupabaseClient(config)
		if err != nil {
			return nil, err
		}
		return NewSupabaseBookStorage(logger, client, config.Store.Table), nil
	case SQLiteDriver, MySQLDriver:
		db, err := GetSQLClient(config)
		if err != nil {
			return nil, err
		}
		return NewSQLBookStorage(logger, db, config.Store.Table), nil
	case RedisDriver:
		if redisClient == nil {
			return nil, fmt.Errorf("redis driver requires a redis client")
		}
		return NewRedisBookStorage(logger, redisClient, ids, config.Redis.HashKey), nil
	case BoltDBDriver:
		db, err := GetBoltDBClient(config)
		if err != nil {
			return nil, err
		}
		return NewBoltBookStorage(logger, &config.BoltDB, db, ids), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", config.Store.Driver)
}
