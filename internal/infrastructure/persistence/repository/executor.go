package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/infrastructure/persistence/sqlite"
)

// executor is satisfied by both *sql.DB and *sql.Tx
type executor = sqlite.Executor

// getExecutor returns the transaction started by sqlite.DB.WithTransaction, if any
func getExecutor(ctx context.Context, db *sql.DB) executor {
	return sqlite.ExecutorFor(ctx, db)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// pageArgs maps a filter to LIMIT/OFFSET arguments; a zero limit means unlimited
func pageArgs(f entity.LotFilter) (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func now() time.Time {
	return time.Now().UTC()
}
