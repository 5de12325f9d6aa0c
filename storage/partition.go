// Package storage implements the in-memory, thread-safe partition
// table the execution engine scans: an append-only sequence of packed
// row buffers behind a single schema, exposing full and keyed scans.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/imotai/HybridSE/row"
)

// RowIterator walks a sequence of row buffers one at a time. It is the
// host-language mirror of the IR-level iterator handle spec.md's
// codegen layer builds against; a Partition's iterators are consumed
// directly by the execution engine, never compiled.
type RowIterator interface {
	// Next advances to the next row, returning false when exhausted.
	Next() bool
	// Row returns the current row's raw buffer. Valid only after a
	// Next call that returned true.
	Row() []byte
}

// Partition is a single table partition: an append-only list of
// encoded rows sharing one schema, safe for concurrent Put/Scan.
type Partition struct {
	schema *row.Schema

	mu   sync.RWMutex
	rows [][]byte
}

// NewPartition creates an empty partition over schema.
func NewPartition(schema *row.Schema) *Partition {
	return &Partition{schema: schema}
}

// Schema returns the partition's row schema.
func (p *Partition) Schema() *row.Schema { return p.schema }

// Put appends row r to the partition. r is stored by reference; callers
// must not mutate it afterward.
func (p *Partition) Put(r []byte) error {
	if r == nil {
		return fmt.Errorf("storage: cannot put a nil row")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, r)
	return nil
}

// Count returns the number of rows currently stored.
func (p *Partition) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rows)
}

// ScanAll returns an iterator over every row in insertion order.
func (p *Partition) ScanAll() RowIterator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snapshot := make([][]byte, len(p.rows))
	copy(snapshot, p.rows)
	return &sliceIterator{rows: snapshot, idx: -1}
}

// ScanKey returns an iterator over every row whose decoded column at
// keyColIdx equals key (compared via fmt.Sprint, since columns may hold
// any of the row package's primitive types). This backs spec.md §4.E's
// windowed Project, which partitions rows by a PARTITION BY column.
func (p *Partition) ScanKey(keyColIdx int, key any) (RowIterator, error) {
	if keyColIdx < 0 || keyColIdx >= p.schema.Size() {
		return nil, fmt.Errorf("storage: key column index %d out of range", keyColIdx)
	}
	p.mu.RLock()
	rows := make([][]byte, len(p.rows))
	copy(rows, p.rows)
	p.mu.RUnlock()

	view := row.NewView(p.schema)

	want := fmt.Sprint(key)
	matched := make([][]byte, 0, len(rows))
	for _, r := range rows {
		if err := view.Reset(r); err != nil {
			return nil, fmt.Errorf("storage: decode row for key scan: %w", err)
		}
		got, err := view.GetAsString(keyColIdx)
		if err != nil {
			return nil, fmt.Errorf("storage: read key column: %w", err)
		}
		if got == want {
			matched = append(matched, r)
		}
	}
	return &sliceIterator{rows: matched, idx: -1}, nil
}

// ScanKeyOrdered behaves as ScanKey but additionally sorts the matched
// window by the i64-typed column at orderColIdx, ascending — spec.md
// §4.E's windowed Project materializes the window "ordered by an order
// key" (e.g. scenario 6's `PARTITION BY col6 ORDER BY col5`); only i64
// order columns are supported in this revision (spec.md §4.E).
func (p *Partition) ScanKeyOrdered(keyColIdx int, key any, orderColIdx int) (RowIterator, error) {
	it, err := p.ScanKey(keyColIdx, key)
	if err != nil {
		return nil, err
	}
	s := it.(*sliceIterator)

	view := row.NewView(p.schema)
	type keyed struct {
		row   []byte
		order int64
	}
	ordered := make([]keyed, 0, len(s.rows))
	for _, r := range s.rows {
		if err := view.Reset(r); err != nil {
			return nil, fmt.Errorf("storage: decode row for order scan: %w", err)
		}
		v, status := view.GetInt64(orderColIdx)
		if status != row.StatusOK {
			return nil, fmt.Errorf("storage: read order column: status %v", status)
		}
		ordered = append(ordered, keyed{row: r, order: v})
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	rows := make([][]byte, len(ordered))
	for i, k := range ordered {
		rows[i] = k.row
	}
	return &sliceIterator{rows: rows, idx: -1}, nil
}

type sliceIterator struct {
	rows [][]byte
	idx  int
}

func (it *sliceIterator) Next() bool {
	it.idx++
	return it.idx < len(it.rows)
}

func (it *sliceIterator) Row() []byte {
	if it.idx < 0 || it.idx >= len(it.rows) {
		return nil
	}
	return it.rows[it.idx]
}
