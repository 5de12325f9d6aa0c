package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imotai/HybridSE/engine"
	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/storage"
)

func t1Schema(t *testing.T) *row.Schema {
	t.Helper()
	schema, err := row.NewSchema(
		row.Column{Name: "col0", Type: row.Varchar},
		row.Column{Name: "col1", Type: row.Int32},
		row.Column{Name: "col2", Type: row.Int16},
		row.Column{Name: "col3", Type: row.Float32},
		row.Column{Name: "col4", Type: row.Float64},
		row.Column{Name: "col5", Type: row.Int64},
		row.Column{Name: "col6", Type: row.Varchar},
	)
	require.NoError(t, err)
	return schema
}

func buildT1Row(t *testing.T, schema *row.Schema, col0 string, col1 int32, col2 int16, col3 float32, col4 float64, col5 int64, col6 string) []byte {
	t.Helper()
	b := row.NewBuilder(schema)
	total := b.CalTotalLength(uint32(len(col0) + len(col6)))
	require.Greater(t, total, uint32(0))
	require.NoError(t, b.SetBuffer(make([]byte, total)))
	require.NoError(t, b.AppendString([]byte(col0)))
	require.NoError(t, b.AppendInt32(col1))
	require.NoError(t, b.AppendInt16(col2))
	require.NoError(t, b.AppendFloat32(col3))
	require.NoError(t, b.AppendFloat64(col4))
	require.NoError(t, b.AppendInt64(col5))
	require.NoError(t, b.AppendString([]byte(col6)))
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

func TestSimpleSelectLimit(t *testing.T) {
	schema := t1Schema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 32, 16, 2.1, 3.1, 64, "1")))
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 32, 16, 2.1, 3.1, 64, "1")))

	cache := engine.NewCache()
	info, err := cache.Get("db", "SELECT col4 FROM t1 LIMIT 2", schema)
	require.NoError(t, err)

	session := engine.NewSession(info, p, nil)
	out, err := session.Run(0)
	require.NoError(t, err)
	require.Len(t, out, 2)

	view := row.NewView(session.OutputSchema())
	for _, r := range out {
		require.NoError(t, view.Reset(r))
		v, status := view.GetDouble(0)
		require.Equal(t, row.StatusOK, status)
		require.InDelta(t, 3.1, v, 1e-9)
	}
}

func TestVarcharSelect(t *testing.T) {
	schema := t1Schema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 32, 16, 2.1, 3.1, 64, "1")))

	cache := engine.NewCache()
	info, err := cache.Get("db", "SELECT col6 FROM t1 LIMIT 1", schema)
	require.NoError(t, err)

	session := engine.NewSession(info, p, nil)
	out, err := session.Run(0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	view := row.NewView(session.OutputSchema())
	require.NoError(t, view.Reset(out[0]))
	s, status := view.GetString(0)
	require.Equal(t, row.StatusOK, status)
	require.Equal(t, "1", string(s))
}

func TestEmbeddedUDF(t *testing.T) {
	schema := t1Schema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 32, 16, 2.1, 3.1, 64, "1")))

	sql := "%%fun def test(a:i32,b:i32):i32 c=a+b d=c+1 return d end %%sql SELECT test(col1,col1) FROM t1 LIMIT 1"
	cache := engine.NewCache()
	info, err := cache.Get("db", sql, schema)
	require.NoError(t, err)

	session := engine.NewSession(info, p, nil)
	out, err := session.Run(0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	view := row.NewView(session.OutputSchema())
	require.NoError(t, view.Reset(out[0]))
	v, status := view.GetInt32(0)
	require.Equal(t, row.StatusOK, status)
	require.Equal(t, int32(65), v)
}

func TestWindowedProject(t *testing.T) {
	schema := t1Schema(t)
	p := storage.NewPartition(schema)
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 10, 16, 2.1, 3.1, 1, "k")))
	require.NoError(t, p.Put(buildT1Row(t, schema, "0", 20, 16, 2.1, 3.1, 2, "k")))

	sql := "SELECT sum(col1) OVER w FROM t1 WINDOW w AS (PARTITION BY col6 ORDER BY col5)"
	cache := engine.NewCache()
	info, err := cache.Get("db", sql, schema)
	require.NoError(t, err)

	session := engine.NewSession(info, p, nil)
	out, err := session.Run(0)
	require.NoError(t, err)
	require.Len(t, out, 2)

	view := row.NewView(session.OutputSchema())
	for _, r := range out {
		require.NoError(t, view.Reset(r))
		v, status := view.GetInt32(0)
		require.Equal(t, row.StatusOK, status)
		require.Equal(t, int32(30), v)
	}
}

func TestCacheGetIsIdempotentAcrossCalls(t *testing.T) {
	schema := t1Schema(t)
	cache := engine.NewCache()
	info1, err := cache.Get("db", "SELECT col4 FROM t1 LIMIT 2", schema)
	require.NoError(t, err)
	info2, err := cache.Get("db", "SELECT col4 FROM t1 LIMIT 2", schema)
	require.NoError(t, err)
	require.Same(t, info1, info2)
}

func TestUnknownColumnProjectionErrors(t *testing.T) {
	schema := t1Schema(t)
	cache := engine.NewCache()
	_, err := cache.Get("db", "SELECT nope FROM t1", schema)
	require.Error(t, err)
}
