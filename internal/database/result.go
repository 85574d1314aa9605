package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBatchSize caps the rows fetched per batch. Bounded to cap
// memory while amortizing driver round-trips.
const DefaultBatchSize = 500

// Column is the metadata captured for one result column.
type Column struct {
	Name     string
	TypeName string
}

// ResultBatch is one bounded slice of a result set. Values are
// pre-formatted for display; NULL renders as "NULL". HasMore reports
// whether another batch (of this or a following result set) will be
// produced by the iterator.
type ResultBatch struct {
	Columns []Column
	Rows    [][]string
	HasMore bool
}

// Rows is a lazy, forward-only iterator over the result sets of one
// execution. It is not restartable; batches handed out are never
// revoked. For multi-result-set dialects it advances across statement
// results in submission order.
type Rows struct {
	rows      *sql.Rows
	cancel    context.CancelFunc
	multi     bool
	batchSize int

	cols    []Column
	pending []string

	err       error
	done      bool
	canceled  atomic.Bool
	closeOnce sync.Once
}

func newRows(rows *sql.Rows, cancel context.CancelFunc, multi bool) (*Rows, error) {
	r := &Rows{
		rows:      rows,
		cancel:    cancel,
		multi:     multi,
		batchSize: DefaultBatchSize,
	}
	if err := r.captureColumns(); err != nil {
		r.Close()
		return nil, &FetchError{Cause: err}
	}
	return r, nil
}

// Columns returns the column metadata of the current result set. It
// is captured when the iterator enters the set and does not change
// until the iterator advances to the next one.
func (r *Rows) Columns() []Column {
	return r.cols
}

// Next returns the next batch, ErrEndOfResults once drained,
// ErrCanceled after Cancel, or a FetchError on a protocol anomaly.
// A FetchError is terminal for this iterator only.
func (r *Rows) Next() (*ResultBatch, error) {
	if r.canceled.Load() {
		return nil, ErrCanceled
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, ErrEndOfResults
	}

	batch := &ResultBatch{Columns: r.cols}
	if r.pending != nil {
		batch.Rows = append(batch.Rows, r.pending)
		r.pending = nil
	}
	for len(batch.Rows) < r.batchSize && r.rows.Next() {
		row, err := r.scanRow()
		if err != nil {
			return nil, r.fail(err)
		}
		batch.Rows = append(batch.Rows, row)
	}

	if len(batch.Rows) == r.batchSize && r.rows.Next() {
		// Buffer one row ahead so a full batch at the exact end of a
		// result set still reports HasMore correctly.
		row, err := r.scanRow()
		if err != nil {
			return nil, r.fail(err)
		}
		r.pending = row
		batch.HasMore = true
		return batch, nil
	}

	// Current result set is exhausted.
	if err := r.rows.Err(); err != nil {
		return nil, r.fail(err)
	}
	if r.multi && r.rows.NextResultSet() {
		if err := r.captureColumns(); err != nil {
			return nil, r.fail(err)
		}
		batch.HasMore = true
		return batch, nil
	}

	r.done = true
	r.Close()
	return batch, nil
}

// Cancel aborts the in-flight query and closes the handle. The
// iterator transitions to a terminal canceled state; batches already
// returned remain valid.
func (r *Rows) Cancel() {
	r.canceled.Store(true)
	r.Close()
}

// Close releases the result handle. Safe to call more than once.
func (r *Rows) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		if r.rows != nil {
			err = r.rows.Close()
		}
	})
	return err
}

func (r *Rows) captureColumns() error {
	names, err := r.rows.Columns()
	if err != nil {
		return err
	}
	types, err := r.rows.ColumnTypes()
	if err != nil {
		return err
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name}
		if i < len(types) && types[i] != nil {
			cols[i].TypeName = types[i].DatabaseTypeName()
		}
	}
	r.cols = cols
	return nil
}

func (r *Rows) scanRow() ([]string, error) {
	values := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = formatValue(v)
	}
	return row, nil
}

func (r *Rows) fail(cause error) error {
	r.err = &FetchError{Cause: cause}
	r.Close()
	return r.err
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
