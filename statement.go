package namedstmt

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Statement is a prepared statement addressed by field index.
// It is NOT safe for concurrent use: bindings, batches and execution all
// mutate the same underlying statement.
type Statement struct {
	stmt   PositionalStatement
	sql    string
	fields []string
	slots  [][]int
	closed bool
	log    *slog.Logger
}

func newStatement(stmt PositionalStatement, r Resolved, fieldNames []string, log *slog.Logger) *Statement {
	return &Statement{
		stmt:   stmt,
		sql:    r.SQL,
		fields: append([]string(nil), fieldNames...),
		slots:  r.Slots,
		log:    log,
	}
}

// SQL returns the rewritten, positional SQL.
func (s *Statement) SQL() string {
	return s.sql
}

// FieldNames returns a copy of the field list the statement was prepared with.
func (s *Statement) FieldNames() []string {
	return append([]string(nil), s.fields...)
}

// FieldIndex returns the first field index carrying name.
func (s *Statement) FieldIndex(name string) (int, bool) {
	for i, f := range s.fields {
		if f == name {
			return i, true
		}
	}
	return -1, false
}

// Slots returns the 1-based positional slots of field, in increasing order.
func (s *Statement) Slots(field int) ([]int, error) {
	if field < 0 || field >= len(s.slots) {
		return nil, &IndexOutOfRangeError{Index: field, Count: len(s.slots)}
	}
	return append([]int{}, s.slots[field]...), nil
}

// fanOut calls bind once per slot of field. A field that is never referenced
// in the SQL has no slots, so binding it is a no-op.
func (s *Statement) fanOut(field int, bind func(pos int) error) error {
	if s.closed {
		return ErrStatementClosed
	}
	if field < 0 || field >= len(s.slots) {
		return &IndexOutOfRangeError{Index: field, Count: len(s.slots)}
	}
	for _, pos := range s.slots[field] {
		if err := bind(pos); err != nil {
			return err
		}
	}
	return nil
}

// SetNull binds a NULL of type t to every slot of field.
func (s *Statement) SetNull(field int, t SQLType) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetNull(pos, t) })
}

// SetBool binds a boolean to every slot of field.
func (s *Statement) SetBool(field int, v bool) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetBool(pos, v) })
}

// SetInt8 binds a single-byte integer to every slot of field.
func (s *Statement) SetInt8(field int, v int8) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetInt8(pos, v) })
}

// SetInt16 binds a 16-bit integer to every slot of field.
func (s *Statement) SetInt16(field int, v int16) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetInt16(pos, v) })
}

// SetInt32 binds a 32-bit integer to every slot of field.
func (s *Statement) SetInt32(field int, v int32) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetInt32(pos, v) })
}

// SetInt64 binds a 64-bit integer to every slot of field.
func (s *Statement) SetInt64(field int, v int64) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetInt64(pos, v) })
}

// SetFloat32 binds a single-precision float to every slot of field.
func (s *Statement) SetFloat32(field int, v float32) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetFloat32(pos, v) })
}

// SetFloat64 binds a double-precision float to every slot of field.
func (s *Statement) SetFloat64(field int, v float64) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetFloat64(pos, v) })
}

// SetDecimal binds an exact decimal to every slot of field.
func (s *Statement) SetDecimal(field int, v decimal.Decimal) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetDecimal(pos, v) })
}

// SetString binds a character string to every slot of field.
func (s *Statement) SetString(field int, v string) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetString(pos, v) })
}

// SetBytes binds a byte string to every slot of field.
func (s *Statement) SetBytes(field int, v []byte) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetBytes(pos, v) })
}

// SetDate binds the calendar date of v.
func (s *Statement) SetDate(field int, v time.Time) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetDate(pos, v) })
}

// SetTime binds the time of day of v.
func (s *Statement) SetTime(field int, v time.Time) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetTime(pos, v) })
}

// SetTimestamp binds v as a date and time of day.
func (s *Statement) SetTimestamp(field int, v time.Time) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetTimestamp(pos, v) })
}

// SetObject binds v as is; the underlying driver decides how to encode it.
func (s *Statement) SetObject(field int, v any) error {
	return s.fanOut(field, func(pos int) error { return s.stmt.SetObject(pos, v) })
}

// ClearParameters unbinds every slot. Calling it twice is harmless.
func (s *Statement) ClearParameters() error {
	if s.closed {
		return ErrStatementClosed
	}
	return s.stmt.ClearParameters()
}

// Query is a convenience that runs QueryContext with context.Background().
func (s *Statement) Query() (Rows, error) {
	return s.QueryContext(context.Background())
}

// QueryContext runs the statement with the current bindings. The returned
// Rows belong to the caller and must be closed by it, even after the
// Statement itself is closed.
func (s *Statement) QueryContext(ctx context.Context) (Rows, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	return s.stmt.QueryContext(ctx)
}

// AddBatch snapshots the current bindings as one pending batch row.
func (s *Statement) AddBatch() error {
	if s.closed {
		return ErrStatementClosed
	}
	return s.stmt.AddBatch()
}

// ExecBatch is a convenience that runs ExecBatchContext with context.Background().
func (s *Statement) ExecBatch() ([]int64, error) {
	return s.ExecBatchContext(context.Background())
}

// ExecBatchContext runs every pending batch row and returns one update count
// per row, in the order rows were added. Failures come back exactly as the
// underlying statement reports them.
func (s *Statement) ExecBatchContext(ctx context.Context) ([]int64, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	counts, err := s.stmt.ExecBatchContext(ctx)
	s.log.Debug("namedstmt: batch executed",
		slog.Int("rows", len(counts)),
		slog.Bool("failed", err != nil),
	)
	return counts, err
}

// Close releases the underlying statement. It is safe to call Close multiple
// times; subsequent calls are no-ops.
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stmt.Close()
}
