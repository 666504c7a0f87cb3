package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ganhesocial/ganhesocial/internal/migration"
)

var dbSeq atomic.Int64

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// OpenDB returns an isolated in-memory database carrying the full
// schema, including the partial unique index backing reservations.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migration.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Node returns a snowflake generator for tests. A single shared node is
// used so IDs generated within the same millisecond stay unique.
func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	if nodeErr != nil {
		t.Fatalf("snowflake node: %v", nodeErr)
	}
	return node
}
