package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/okian/tripsync/internal/domain/model"
	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/internal/domain/types"
	"github.com/okian/tripsync/pkg/logger"
)

// Session is an open sink connection.
type Session struct {
	db     *sql.DB
	insert string
	logger logger.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ types.Sink = (*Session)(nil)

// insertStatement renders the positional insert for one MetricRow.
func insertStatement(table string) (string, error) {
	q, _, err := squirrel.Insert(table).
		Columns(model.Columns[:]...).
		Values(make([]any, model.ColumnCount)...).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	return q, nil
}

// WriteAll appends rows in a single transaction. Either every row is committed
// or none is.
func (s *Session) WriteAll(ctx context.Context, rows []model.MetricRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error(ctx, "begin failed", logger.Error(err))
		return 0, taskerr.Write(fmt.Errorf("begin: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		_ = tx.Rollback()
		s.logger.Error(ctx, "prepare failed", logger.Error(err))
		return 0, taskerr.Write(fmt.Errorf("prepare: %w", err))
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, args(r)...); err != nil {
			_ = tx.Rollback()
			s.logger.Error(ctx, "insert failed, rolled back",
				logger.Int("row", i),
				logger.String("month", r.Month),
				logger.Error(err))
			return 0, taskerr.Write(fmt.Errorf("row %d (month %s): %w", i, r.Month, err))
		}
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		s.logger.Error(ctx, "commit failed", logger.Error(err))
		return 0, taskerr.Write(fmt.Errorf("commit: %w", err))
	}

	s.logger.Info(ctx, "committed", logger.Int("rows", len(rows)))
	return len(rows), nil
}

// Close closes the database handle. Calls after the first are no-ops.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// args returns r in column order with metrics as REAL or NULL.
func args(r model.MetricRow) []any {
	vals := r.Values()
	for i, v := range vals {
		if d, ok := v.(decimal.NullDecimal); ok {
			vals[i] = nullableFloat(d)
		}
	}
	return vals
}

func nullableFloat(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
