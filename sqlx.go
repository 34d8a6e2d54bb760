package namedstmt

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Preparer abstracts *sqlx.DB / *sqlx.Tx PreparexContext for easy testing.
type Preparer interface {
	PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
}

var (
	_ Preparer = (*sqlx.DB)(nil)
	_ Preparer = (*sqlx.Tx)(nil)

	_ PositionalStatement = (*sqlxStmt)(nil)
	_ Rows                = (*sqlx.Rows)(nil)
)

// Wrap returns a Connection preparing statements on p. Query results are
// *sqlx.Rows, so callers may type-assert them to use StructScan.
func Wrap(p Preparer) Connection {
	return sqlxConn{p: p}
}

type sqlxConn struct {
	p Preparer
}

func (c sqlxConn) PrepareStatement(ctx context.Context, query string, params int) (PositionalStatement, error) {
	stmt, err := c.p.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlxStmt{
		stmt: stmt,
		args: make([]any, params),
		set:  make([]bool, params),
	}, nil
}

// sqlxStmt keeps positional bindings client-side and hands them to the
// prepared *sqlx.Stmt on execution. Batches run row by row.
type sqlxStmt struct {
	stmt   *sqlx.Stmt
	args   []any
	set    []bool
	batch  [][]any
	closed bool
}

func (s *sqlxStmt) bind(pos int, v any) error {
	if pos < 1 || pos > len(s.args) {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPositionOutOfRange, pos, len(s.args))
	}
	s.args[pos-1] = v
	s.set[pos-1] = true
	return nil
}

// snapshot copies the current bindings; every position must be bound.
func (s *sqlxStmt) snapshot() ([]any, error) {
	for i, ok := range s.set {
		if !ok {
			return nil, fmt.Errorf("%w: position %d", ErrParamNotSet, i+1)
		}
	}
	return append([]any(nil), s.args...), nil
}

func (s *sqlxStmt) SetNull(pos int, t SQLType) error { return s.bind(pos, nullOf(t)) }
func (s *sqlxStmt) SetBool(pos int, v bool) error    { return s.bind(pos, v) }
func (s *sqlxStmt) SetInt8(pos int, v int8) error    { return s.bind(pos, v) }
func (s *sqlxStmt) SetInt16(pos int, v int16) error  { return s.bind(pos, v) }
func (s *sqlxStmt) SetInt32(pos int, v int32) error  { return s.bind(pos, v) }
func (s *sqlxStmt) SetInt64(pos int, v int64) error  { return s.bind(pos, v) }

func (s *sqlxStmt) SetFloat32(pos int, v float32) error { return s.bind(pos, v) }
func (s *sqlxStmt) SetFloat64(pos int, v float64) error { return s.bind(pos, v) }

func (s *sqlxStmt) SetDecimal(pos int, v decimal.Decimal) error { return s.bind(pos, v) }
func (s *sqlxStmt) SetString(pos int, v string) error           { return s.bind(pos, v) }

// SetBytes copies v so later changes by the caller do not leak into
// snapshots already queued with AddBatch.
func (s *sqlxStmt) SetBytes(pos int, v []byte) error {
	if v == nil {
		return s.bind(pos, []byte(nil))
	}
	return s.bind(pos, append([]byte{}, v...))
}

// SetDate keeps the calendar date of v at midnight in v's location.
func (s *sqlxStmt) SetDate(pos int, v time.Time) error {
	return s.bind(pos, time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, v.Location()))
}

// SetTime keeps the clock of v on 1970-01-01 in v's location.
func (s *sqlxStmt) SetTime(pos int, v time.Time) error {
	return s.bind(pos, time.Date(1970, time.January, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), v.Location()))
}

func (s *sqlxStmt) SetTimestamp(pos int, v time.Time) error { return s.bind(pos, v) }
func (s *sqlxStmt) SetObject(pos int, v any) error          { return s.bind(pos, v) }

func (s *sqlxStmt) ClearParameters() error {
	for i := range s.args {
		s.args[i] = nil
		s.set[i] = false
	}
	return nil
}

func (s *sqlxStmt) QueryContext(ctx context.Context) (Rows, error) {
	args, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	rows, err := s.stmt.QueryxContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlxStmt) AddBatch() error {
	args, err := s.snapshot()
	if err != nil {
		return err
	}
	s.batch = append(s.batch, args)
	return nil
}

// ExecBatchContext executes pending rows in order and stops at the first
// failure, returning a *BatchError with the counts gathered so far. The
// pending batch is emptied either way.
func (s *sqlxStmt) ExecBatchContext(ctx context.Context) ([]int64, error) {
	pending := s.batch
	s.batch = nil

	counts := make([]int64, 0, len(pending))
	for i, args := range pending {
		n, err := s.execRow(ctx, args)
		if err != nil {
			return counts, &BatchError{Row: i, Counts: counts, Err: err}
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func (s *sqlxStmt) execRow(ctx context.Context, args []any) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqlxStmt) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.batch = nil
	return s.stmt.Close()
}

// nullOf returns a typed NULL for t.
func nullOf(t SQLType) any {
	switch t {
	case TypeBoolean:
		return sql.NullBool{}
	case TypeTinyInt, TypeSmallInt:
		return sql.NullInt16{}
	case TypeInteger:
		return sql.NullInt32{}
	case TypeBigInt:
		return sql.NullInt64{}
	case TypeFloat, TypeDouble:
		return sql.NullFloat64{}
	case TypeDecimal:
		return decimal.NullDecimal{}
	case TypeVarchar:
		return sql.NullString{}
	case TypeBinary:
		return []byte(nil)
	case TypeDate, TypeTime, TypeTimestamp:
		return sql.NullTime{}
	default:
		return nil
	}
}
