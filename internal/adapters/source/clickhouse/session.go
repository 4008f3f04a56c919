package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
	"syscall"

	"github.com/okian/tripsync/internal/domain/model"
	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/internal/domain/types"
	"github.com/okian/tripsync/pkg/logger"
)

// Session is an open source connection.
type Session struct {
	conn   Conn
	logger logger.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ types.Source = (*Session)(nil)

// Fetch runs WeekendMetricsQuery and materializes the full result.
func (s *Session) Fetch(ctx context.Context) ([]model.MetricRow, error) {
	rows, err := s.conn.Query(ctx, WeekendMetricsQuery)
	if err != nil {
		s.logger.Error(ctx, "query failed", logger.Error(err))
		return nil, classifyRead(err)
	}
	defer func() { _ = rows.Close() }()

	if cols := rows.Columns(); len(cols) != model.ColumnCount {
		err := fmt.Errorf("%w: got %d, want %d", ErrColumnCount, len(cols), model.ColumnCount)
		s.logger.Error(ctx, "unexpected result shape", logger.Error(err))
		return nil, taskerr.DataShape(err)
	}

	var out []model.MetricRow
	for rows.Next() {
		var (
			month                          *string
			satTrips, satFare, satDuration *float64
			sunTrips, sunFare, sunDuration *float64
		)
		if err := rows.Scan(&month, &satTrips, &satFare, &satDuration, &sunTrips, &sunFare, &sunDuration); err != nil {
			s.logger.Error(ctx, "scan failed", logger.Int("row", len(out)), logger.Error(err))
			return nil, taskerr.DataShape(fmt.Errorf("row %d: %w", len(out), err))
		}
		if month == nil {
			err := fmt.Errorf("row %d: %w", len(out), ErrNullMonth)
			s.logger.Error(ctx, "unexpected result shape", logger.Error(err))
			return nil, taskerr.DataShape(err)
		}
		// Column 0 is the month.
		for i, v := range []*float64{satTrips, satFare, satDuration, sunTrips, sunFare, sunDuration} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				err := fmt.Errorf("row %d column %d (%s): %w %v", len(out), i+1, model.Columns[i+1], ErrNonFinite, *v)
				s.logger.Error(ctx, "unexpected result shape", logger.String("month", *month), logger.Error(err))
				return nil, taskerr.DataShape(err)
			}
		}
		out = append(out, model.MetricRow{
			Month:                       *month,
			SaturdayMeanTripCount:       model.NullDecimal(satTrips),
			SaturdayMeanFarePerTrip:     model.NullDecimal(satFare),
			SaturdayMeanDurationPerTrip: model.NullDecimal(satDuration),
			SundayMeanTripCount:         model.NullDecimal(sunTrips),
			SundayMeanFarePerTrip:       model.NullDecimal(sunFare),
			SundayMeanDurationPerTrip:   model.NullDecimal(sunDuration),
		})
	}
	if err := rows.Err(); err != nil {
		s.logger.Error(ctx, "reading rows failed", logger.Int("rows_read", len(out)), logger.Error(err))
		return nil, classifyRead(err)
	}

	if err := model.ValidateBatch(out); err != nil {
		s.logger.Error(ctx, "invalid result", logger.Error(err))
		return nil, taskerr.DataShape(err)
	}

	s.logger.Info(ctx, "fetched", logger.Int("rows", len(out)))
	return out, nil
}

// Close releases the connection. Calls after the first are no-ops.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// classifyRead separates transport failures from rejected queries. A
// cancelled run or a dropped connection is retryable; anything the server
// answered with is a query error.
func classifyRead(err error) *taskerr.Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.As(err, &netErr):
		return taskerr.New(taskerr.KindConnection, taskerr.PhaseFetch, component, err)
	default:
		return taskerr.Query(err)
	}
}
