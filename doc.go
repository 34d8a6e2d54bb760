// Package namedstmt prepares SQL written with :named placeholders on top of a positional-parameter statement. Each name is resolved once, at prepare time, to the positional slots it occupies; values are then bound by field index (the position of the name in the field list you supply) and fanned out to every slot of that field. Execution, batching and row streaming are delegated unchanged to the underlying statement, by default a *sqlx.Stmt.

package namedstmt
