package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a new bolt store in a temporary path.
func newTestBoltStore(t *testing.T) BookStorage {
	t.Helper()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "books.bolt.db"),
			Timeout:    5 * time.Second,
			BucketName: "test.books",
		},
	}
	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt store")
	store := NewBoltBookStorage(zap.NewNop(), &testConfig.BoltDB, client, NewIDsHandler())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestBoltStore ensures the bolt backend honors the books storage behaviors.
func TestBoltStore(t *testing.T) {
	testBookStorage(t, newTestBoltStore(t))
}
