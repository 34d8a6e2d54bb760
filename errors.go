package namedstmt

import "fmt"

// UnknownFieldError reports a placeholder whose name is not in the field list.
// Pos is the byte offset of the ':' in the original SQL.
type UnknownFieldError struct {
	Name string
	Pos  int
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: :%s at offset %d", ErrUnknownField, e.Name, e.Pos)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// IndexOutOfRangeError reports a binding call with a field index outside
// [0, Count).
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %d not in [0, %d)", ErrIndexOutOfRange, e.Index, e.Count)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// BatchError is returned by ExecBatch when a row fails. Counts holds the
// update counts of the rows that ran before Row, in add order.
type BatchError struct {
	Row    int
	Counts []int64
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("namedstmt: batch row %d: %v", e.Row, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
