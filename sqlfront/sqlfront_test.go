package sqlfront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFunPrefixWithoutMarkerReturnsSQLUnchanged(t *testing.T) {
	fn, sel, err := splitFunPrefix("SELECT col1 FROM t1 LIMIT 2")
	require.NoError(t, err)
	assert.Empty(t, fn)
	assert.Equal(t, "SELECT col1 FROM t1 LIMIT 2", sel)
}

func TestSplitFunPrefixExtractsBothHalves(t *testing.T) {
	fn, sel, err := splitFunPrefix("%%fun def test(a:i32,b:i32):i32 c=a+b d=c+1 return d end %%sql SELECT test(col1,col1) FROM t1 LIMIT 1")
	require.NoError(t, err)
	assert.Equal(t, "def test(a:i32,b:i32):i32 c=a+b d=c+1 return d end", fn)
	assert.Equal(t, "SELECT test(col1,col1) FROM t1 LIMIT 1", sel)
}

func TestSplitFunPrefixMissingSQLMarkerErrors(t *testing.T) {
	_, _, err := splitFunPrefix("%%fun def test(a:i32):i32 return a end")
	require.Error(t, err)
}

func TestParseFunctionBuildsSignatureAndBody(t *testing.T) {
	def, err := ParseFunction("def test(a:i32,b:i32):i32 c=a+b d=c+1 return d end")
	require.NoError(t, err)

	assert.Equal(t, "test", def.Name)
	require.Len(t, def.Params, 2)
	assert.Equal(t, "a", def.Params[0].Name)
	assert.Equal(t, "b", def.Params[1].Name)
	assert.Equal(t, int(3), len(def.Body))
}

func TestParseFunctionIfElifElse(t *testing.T) {
	src := `def clamp(x:i32):i32
		if x < 0
			return 0
		elif x > 100
			return 100
		else
			return x
		end
	end`
	def, err := ParseFunction(src)
	require.NoError(t, err)
	require.Len(t, def.Body, 1)
}

func TestParseFunctionForIn(t *testing.T) {
	src := `def sumw(w:i64):i64
		total=0
		for r in w
			total=total+1
		end
		return total
	end`
	def, err := ParseFunction(src)
	require.NoError(t, err)
	require.Len(t, def.Body, 3)
}

func TestParseFunctionRejectsUnknownType(t *testing.T) {
	_, err := ParseFunction("def bad(a:nope):i32 return a end")
	require.Error(t, err)
}

func TestParseQuerySimpleSelect(t *testing.T) {
	q, err := ParseQuery("SELECT col4 FROM t1 LIMIT 2")
	require.NoError(t, err)
	assert.Equal(t, "t1", q.Table)
	require.Len(t, q.Projections, 1)
	assert.Equal(t, "col4", q.Projections[0].Column)
	require.NotNil(t, q.Limit)
	assert.Equal(t, int64(2), *q.Limit)
	assert.Nil(t, q.Func)
}

func TestParseQueryEmbeddedUDF(t *testing.T) {
	q, err := ParseQuery("%%fun def test(a:i32,b:i32):i32 c=a+b d=c+1 return d end %%sql SELECT test(col1,col1) FROM t1 LIMIT 1")
	require.NoError(t, err)
	require.NotNil(t, q.Func)
	assert.Equal(t, "test", q.Func.Name)
	require.Len(t, q.Projections, 1)
	require.NotNil(t, q.Projections[0].Call)
	assert.Equal(t, "test", q.Projections[0].Call.Callee)
}

func TestParseQueryWindowedProject(t *testing.T) {
	q, err := ParseQuery("SELECT sum(col1) OVER w FROM t1 WINDOW w AS (PARTITION BY col6 ORDER BY col5)")
	require.NoError(t, err)
	require.Len(t, q.Projections, 1)
	assert.Equal(t, "w", q.Projections[0].Window)
	require.Contains(t, q.Windows, "w")
	spec := q.Windows["w"]
	assert.Equal(t, []string{"col6"}, spec.PartitionBy)
	assert.Equal(t, []string{"col5"}, spec.OrderBy)
}

func TestParseQueryRejectsMissingFrom(t *testing.T) {
	_, err := ParseQuery("SELECT 1")
	require.Error(t, err)
}
