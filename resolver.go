package namedstmt

import (
	"fmt"
	"strconv"
	"strings"
)

// Occurrence is one :name found in the SQL text.
type Occurrence struct {
	Name string
	Pos  int // offset of ':' in the original SQL
	End  int // offset just past the name
	Slot int // 1-based positional slot in the rewritten SQL
}

// Resolved is the outcome of resolving a named statement.
type Resolved struct {
	// SQL is the rewritten statement with one positional marker per occurrence.
	SQL string
	// Slots maps each field index to its positional slots, in scan order.
	// Fields never referenced have an empty set.
	Slots [][]int
	// Occurrences lists every placeholder in scan order.
	Occurrences []Occurrence
}

// NumParams returns the number of positional markers in the rewritten SQL.
func (r Resolved) NumParams() int {
	return len(r.Occurrences)
}

// resolve walks the input SQL, replaces every :name placeholder with the
// dialect's positional marker and records the slots of each field. Quoted
// text, quoted identifiers, comments and dollar-quoted bodies are copied
// verbatim and never scanned for placeholders.
func resolve(dialect Dialect, q string, fieldNames []string, config Config) (Resolved, error) {
	// A name listed more than once fans out to every index that carries it.
	fields := make(map[string][]int, len(fieldNames))
	for i, name := range fieldNames {
		fields[name] = append(fields[name], i)
	}

	slots := make([][]int, len(fieldNames))
	var occ []Occurrence

	// Rough estimate for number of placeholders (not exact, but helps sizing).
	est := strings.Count(q, ":") - strings.Count(q, "::")
	if est < 0 {
		est = 0
	}

	var buf strings.Builder
	// Small oversizing to reduce reallocations; some dialects emit longer tokens.
	extraPer := 1
	switch dialect {
	case Postgres, SQLServer:
		extraPer = 4
	}
	buf.Grow(len(q) + 16 + est*extraPer)

	n := 0
	var dqTag string // active dollar-quoted tag (Postgres-like)
	escapes := false // backslash escapes inside the current literal
	depth := 0       // block comment nesting, only Postgres nests

	// State machine for safe scanning through strings, comments, identifiers, etc.
	const (
		sText = iota
		sSQ   // '...', also E'...' (Postgres)
		sDQ   // "..." (a string in MySQL, an identifier elsewhere)
		sBT   // `...` (MySQL/SQLite)
		sBR   // [...] (SQL Server)
		sLC   // line comment -- or # (MySQL only)
		sBC   // block comment /* ... */
		sDQD  // $tag$ ... $tag$ (dollar-quoted)
	)
	state := sText

	for i := 0; i < len(q); {
		c := q[i]

		switch state {
		case sText:
			if c == '-' && i+1 < len(q) && q[i+1] == '-' {
				state = sLC
				buf.WriteString("--")
				i += 2
				continue
			}
			if c == '#' && dialect == MySQL {
				state = sLC
				buf.WriteByte('#')
				i++
				continue
			}
			if c == '/' && i+1 < len(q) && q[i+1] == '*' {
				state = sBC
				depth = 1
				buf.WriteString("/*")
				i += 2
				continue
			}
			if c == '\'' {
				state = sSQ
				escapes = dialect == MySQL || (dialect == Postgres && isEscapePrefix(q, i))
				buf.WriteByte(c)
				i++
				continue
			}
			if c == '"' {
				state = sDQ
				escapes = dialect == MySQL
				buf.WriteByte(c)
				i++
				continue
			}
			if c == '`' && (dialect == MySQL || dialect == SQLite) {
				state = sBT
				buf.WriteByte(c)
				i++
				continue
			}
			if c == '[' && dialect == SQLServer {
				state = sBR
				buf.WriteByte(c)
				i++
				continue
			}
			if c == '$' {
				if tag, ok := readDollarTag(q[i:]); ok {
					state = sDQD
					dqTag = tag
					buf.WriteString(tag)
					i += len(tag)
					continue
				}
			}

			// :name, but never the '::' cast operator
			if c == ':' && (i+1) < len(q) && isAlphaUnderscore(q[i+1]) && !(i > 0 && q[i-1] == ':') {
				k := i + 2
				for k < len(q) && isAlphaNumUnderscore(q[k]) {
					k++
				}
				name := q[i+1 : k]

				if config.MaxNameLen > 0 && len(name) > config.MaxNameLen {
					return Resolved{}, fmt.Errorf("%w: %q (%d > %d)", ErrParamNameTooLong, name, len(name), config.MaxNameLen)
				}

				idx, ok := fields[name]
				if !ok {
					return Resolved{}, &UnknownFieldError{Name: name, Pos: i}
				}

				if config.MaxParams > 0 && n+1 > config.MaxParams {
					return Resolved{}, fmt.Errorf("%w: requested=%d, limit=%d", ErrTooManyParams, n+1, config.MaxParams)
				}

				n++
				writePlaceholder(&buf, dialect, n)
				for _, f := range idx {
					slots[f] = append(slots[f], n)
				}
				occ = append(occ, Occurrence{Name: name, Pos: i, End: k, Slot: n})
				i = k
				continue
			}

			buf.WriteByte(c)
			i++

		case sSQ:
			if c == '\\' && escapes {
				buf.WriteByte(c)
				i++
				if i < len(q) {
					buf.WriteByte(q[i])
					i++
				}
				continue
			}
			buf.WriteByte(c)
			i++
			if c == '\'' {
				if i < len(q) && q[i] == '\'' {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sDQ:
			if c == '\\' && escapes {
				buf.WriteByte(c)
				i++
				if i < len(q) {
					buf.WriteByte(q[i])
					i++
				}
				continue
			}
			buf.WriteByte(c)
			i++
			if c == '"' {
				if i < len(q) && q[i] == '"' {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sBT:
			buf.WriteByte(c)
			i++
			if c == '`' {
				if i < len(q) && q[i] == '`' {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sBR:
			buf.WriteByte(c)
			i++
			if c == ']' {
				if i < len(q) && q[i] == ']' {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sLC:
			buf.WriteByte(c)
			i++
			if c == '\n' || c == '\r' {
				state = sText
			}

		case sBC:
			if dialect == Postgres && c == '/' && i+1 < len(q) && q[i+1] == '*' {
				buf.WriteString("/*")
				i += 2
				depth++
				continue
			}
			if c == '*' && i+1 < len(q) && q[i+1] == '/' {
				buf.WriteString("*/")
				i += 2
				depth--
				if depth == 0 {
					state = sText
				}
				continue
			}
			buf.WriteByte(c)
			i++

		case sDQD:
			p := strings.Index(q[i:], dqTag)
			if p < 0 {
				buf.WriteString(q[i:])
				i = len(q)
			} else {
				buf.WriteString(q[i : i+p])
				buf.WriteString(dqTag)
				i += p + len(dqTag)
				dqTag = ""
				state = sText
			}
		}
	}

	for f := range slots {
		if slots[f] == nil {
			slots[f] = []int{}
		}
	}

	return Resolved{SQL: buf.String(), Slots: slots, Occurrences: occ}, nil
}

// writePlaceholder emits a dialect-specific placeholder token for slot idx.
func writePlaceholder(b *strings.Builder, d Dialect, idx int) {
	switch d {
	case Postgres:
		b.WriteByte('$')
		var tmp [20]byte
		n := strconv.AppendInt(tmp[:0], int64(idx), 10)
		b.Write(n)
	case SQLServer:
		b.WriteString("@p")
		var tmp [20]byte
		n := strconv.AppendInt(tmp[:0], int64(idx), 10)
		b.Write(n)
	default: // MySQL, SQLite
		b.WriteByte('?')
	}
}

// isAlphaUnderscore reports whether b is [A-Za-z_] .
func isAlphaUnderscore(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

// isAlphaNumUnderscore reports whether b is [A-Za-z0-9_] .
func isAlphaNumUnderscore(b byte) bool {
	return isAlphaUnderscore(b) || (b >= '0' && b <= '9')
}

// isEscapePrefix reports whether the quote at q[i] opens a Postgres E'...'
// string, where backslash sequences are escapes.
func isEscapePrefix(q string, i int) bool {
	if i == 0 || (q[i-1] != 'E' && q[i-1] != 'e') {
		return false
	}
	return i == 1 || !isAlphaNumUnderscore(q[i-2])
}

// readDollarTag detects a dollar-quoted opening tag ("$tag$") at the start of s.
// It returns the full tag (e.g. "$tag$") and true if found. "$1"-style
// positional markers never match since a tag cannot start with a digit.
func readDollarTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	if s[1] != '$' && !isAlphaUnderscore(s[1]) {
		return "", false
	}
	j := 1
	for j < len(s) && isAlphaNumUnderscore(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '$' {
		return s[:j+1], true
	}
	return "", false
}
