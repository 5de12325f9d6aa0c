package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/storage"
)

func testSchema(t *testing.T) *row.Schema {
	t.Helper()
	schema, err := row.NewSchema(
		row.Column{Name: "k", Type: row.Varchar},
		row.Column{Name: "v", Type: row.Int32},
	)
	require.NoError(t, err)
	return schema
}

func buildRow(t *testing.T, schema *row.Schema, k string, v int32) []byte {
	t.Helper()
	b := row.NewBuilder(schema)
	total := b.CalTotalLength(uint32(len(k)))
	require.Greater(t, total, uint32(0))
	require.NoError(t, b.SetBuffer(make([]byte, total)))
	require.NoError(t, b.AppendString([]byte(k)))
	require.NoError(t, b.AppendInt32(v))
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

func TestScanAllReturnsRowsInInsertionOrder(t *testing.T) {
	schema := testSchema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildRow(t, schema, "a", 1)))
	require.NoError(t, p.Put(buildRow(t, schema, "b", 2)))

	it := p.ScanAll()
	view := row.NewView(schema)

	require.True(t, it.Next())
	require.NoError(t, view.Reset(it.Row()))
	s, err := view.GetAsString(0)
	require.NoError(t, err)
	require.Equal(t, "a", s)

	require.True(t, it.Next())
	require.NoError(t, view.Reset(it.Row()))
	s, err = view.GetAsString(0)
	require.NoError(t, err)
	require.Equal(t, "b", s)

	require.False(t, it.Next())
}

func TestScanKeyOnlyReturnsMatchingRows(t *testing.T) {
	schema := testSchema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildRow(t, schema, "x", 1)))
	require.NoError(t, p.Put(buildRow(t, schema, "y", 2)))
	require.NoError(t, p.Put(buildRow(t, schema, "x", 3)))

	it, err := p.ScanKey(0, "x")
	require.NoError(t, err)

	view := row.NewView(schema)
	var got []int32
	for it.Next() {
		require.NoError(t, view.Reset(it.Row()))
		v, status := view.GetInt32(1)
		require.Equal(t, row.StatusOK, status)
		got = append(got, v)
	}
	require.Equal(t, []int32{1, 3}, got)
}

func orderedSchema(t *testing.T) *row.Schema {
	t.Helper()
	schema, err := row.NewSchema(
		row.Column{Name: "k", Type: row.Varchar},
		row.Column{Name: "ord", Type: row.Int64},
		row.Column{Name: "v", Type: row.Int32},
	)
	require.NoError(t, err)
	return schema
}

func buildOrderedRow(t *testing.T, schema *row.Schema, k string, ord int64, v int32) []byte {
	t.Helper()
	b := row.NewBuilder(schema)
	total := b.CalTotalLength(uint32(len(k)))
	require.NoError(t, b.SetBuffer(make([]byte, total)))
	require.NoError(t, b.AppendString([]byte(k)))
	require.NoError(t, b.AppendInt64(ord))
	require.NoError(t, b.AppendInt32(v))
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

func TestScanKeyOrderedSortsByOrderColumnAscending(t *testing.T) {
	schema := orderedSchema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildOrderedRow(t, schema, "k", 3, 30)))
	require.NoError(t, p.Put(buildOrderedRow(t, schema, "k", 1, 10)))
	require.NoError(t, p.Put(buildOrderedRow(t, schema, "other", 2, 99)))
	require.NoError(t, p.Put(buildOrderedRow(t, schema, "k", 2, 20)))

	it, err := p.ScanKeyOrdered(0, "k", 1)
	require.NoError(t, err)

	view := row.NewView(schema)
	var got []int32
	for it.Next() {
		require.NoError(t, view.Reset(it.Row()))
		v, status := view.GetInt32(2)
		require.Equal(t, row.StatusOK, status)
		got = append(got, v)
	}
	require.Equal(t, []int32{10, 20, 30}, got)
}

func TestScanKeyRejectsOutOfRangeColumn(t *testing.T) {
	schema := testSchema(t)
	p := storage.NewPartition(schema)
	_, err := p.ScanKey(5, "x")
	require.Error(t, err)
}

func TestCountTracksPuts(t *testing.T) {
	schema := testSchema(t)
	p := storage.NewPartition(schema)
	require.Equal(t, 0, p.Count())
	require.NoError(t, p.Put(buildRow(t, schema, "a", 1)))
	require.Equal(t, 1, p.Count())
}
