package namedstmt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Dialect identifies the SQL dialect for placeholder rendering and a few
// dialect-specific scanning behaviors.
type Dialect int

// NamedSQL is the main entry point. It holds the selected dialect and
// configuration used to resolve and prepare named statements.
// A single NamedSQL instance is safe for concurrent use.
type NamedSQL struct {
	dialect Dialect
	config  Config
}

// Config defines limits and behavior tweaks for the resolver.
type Config struct {
	// MaxParams limits the total number of positional markers a single
	// statement may contain.
	// If = 0 (or omitted), it uses a sensible per-dialect default.
	// If < 0, it's treated as "unlimited".
	MaxParams int
	// MaxNameLen limits the maximum allowed length of a placeholder name,
	// e.g. ":this_is_a_name". Names longer than this cause ErrParamNameTooLong.
	MaxNameLen int
	// Logger receives debug records for prepare and batch execution.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

const (
	Postgres Dialect = iota
	MySQL
	SQLite
	SQLServer
)

var (
	ErrUnknownField       = errors.New("namedstmt: unknown field")
	ErrIndexOutOfRange    = errors.New("namedstmt: field index out of range")
	ErrTooManyParams      = errors.New("namedstmt: too many parameters")
	ErrParamNameTooLong   = errors.New("namedstmt: parameter name too long")
	ErrStatementClosed    = errors.New("namedstmt: statement is closed")
	ErrPositionOutOfRange = errors.New("namedstmt: parameter position out of range")
	ErrParamNotSet        = errors.New("namedstmt: parameter not set")
	ErrUnsupportedDriver  = errors.New("namedstmt: unsupported driver")
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return "unknown"
	}
}

// DialectFor returns the dialect matching a database/sql driver name, as
// known to sqlx (e.g. "postgres", "pgx", "mysql", "sqlite3", "sqlserver").
// Drivers that bind by name or are unknown to sqlx yield ErrUnsupportedDriver.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "sqlite", "sqlite3", "nrsqlite3":
		return SQLite, nil
	}

	switch sqlx.BindType(driverName) {
	case sqlx.DOLLAR:
		return Postgres, nil
	case sqlx.AT:
		return SQLServer, nil
	case sqlx.QUESTION:
		return MySQL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driverName)
	}
}

// New returns a new NamedSQL for the given dialect. Optionally provide a
// Config; unspecified fields fall back to sensible per-dialect defaults.
func New(dialect Dialect, cfg ...Config) *NamedSQL {
	return &NamedSQL{
		dialect: dialect,
		config:  defaultConfig(dialect, cfg...),
	}
}

// Dialect returns the dialect used to render positional markers.
func (n *NamedSQL) Dialect() Dialect {
	return n.dialect
}

// Resolve rewrites query for this dialect and maps every field of
// fieldNames to the positional slots it occupies. It performs no I/O.
func (n *NamedSQL) Resolve(query string, fieldNames []string) (Resolved, error) {
	return resolve(n.dialect, query, fieldNames, n.config)
}

// Prepare resolves query against fieldNames and prepares the rewritten SQL
// on conn. Errors raised by conn are returned unchanged. When resolution
// fails, conn is never asked to prepare anything.
func (n *NamedSQL) Prepare(ctx context.Context, conn Connection, query string, fieldNames []string) (*Statement, error) {
	r, err := n.Resolve(query, fieldNames)
	if err != nil {
		return nil, err
	}

	stmt, err := conn.PrepareStatement(ctx, r.SQL, r.NumParams())
	if err != nil {
		return nil, err
	}

	n.config.Logger.Debug("namedstmt: prepared",
		slog.String("dialect", n.dialect.String()),
		slog.Int("fields", len(fieldNames)),
		slog.Int("params", r.NumParams()),
	)

	return newStatement(stmt, r, fieldNames, n.config.Logger), nil
}

// defaultConfig merges user config with per-dialect defaults.
func defaultConfig(dialect Dialect, config ...Config) Config {
	c := Config{}

	if len(config) > 0 {
		c = config[0]
	}

	if c.MaxParams == 0 {
		switch dialect {
		case SQLServer:
			c.MaxParams = 2100
		case SQLite:
			c.MaxParams = 999
		case Postgres, MySQL:
			c.MaxParams = 65535
		}
	}

	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 64
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return c
}
