package namedstmt

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SQLType is the type code passed to SetNull so the underlying statement can
// bind a typed NULL.
type SQLType int

const (
	TypeOther SQLType = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeVarchar
	TypeBinary
	TypeDate
	TypeTime
	TypeTimestamp
)

// String returns the SQL name of the type code.
func (t SQLType) String() string {
	switch t {
	case TypeOther:
		return "OTHER"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTinyInt:
		return "TINYINT"
	case TypeSmallInt:
		return "SMALLINT"
	case TypeInteger:
		return "INTEGER"
	case TypeBigInt:
		return "BIGINT"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeDecimal:
		return "DECIMAL"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBinary:
		return "BINARY"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "unknown"
	}
}

// Connection prepares positional statements. Wrap adapts sqlx handles;
// tests can provide their own.
type Connection interface {
	// PrepareStatement prepares query, which holds params positional markers.
	PrepareStatement(ctx context.Context, query string, params int) (PositionalStatement, error)
}

// PositionalStatement is a prepared statement bound by 1-based position.
// Setting a position replaces its previous value.
type PositionalStatement interface {
	SetNull(pos int, t SQLType) error
	SetBool(pos int, v bool) error
	SetInt8(pos int, v int8) error
	SetInt16(pos int, v int16) error
	SetInt32(pos int, v int32) error
	SetInt64(pos int, v int64) error
	SetFloat32(pos int, v float32) error
	SetFloat64(pos int, v float64) error
	SetDecimal(pos int, v decimal.Decimal) error
	SetString(pos int, v string) error
	SetBytes(pos int, v []byte) error
	SetDate(pos int, v time.Time) error
	SetTime(pos int, v time.Time) error
	SetTimestamp(pos int, v time.Time) error
	SetObject(pos int, v any) error

	// ClearParameters unbinds every position.
	ClearParameters() error
	// QueryContext runs the statement with the current bindings.
	QueryContext(ctx context.Context) (Rows, error)
	// AddBatch snapshots the current bindings as one pending row.
	AddBatch() error
	// ExecBatchContext runs the pending rows and returns one update count
	// per row, in add order.
	ExecBatchContext(ctx context.Context) ([]int64, error)
	// Close releases the statement.
	Close() error
}

// Rows is a forward-only result cursor. *sql.Rows and *sqlx.Rows satisfy it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}
