// Package sqlfront parses the outer SELECT surface spec.md §6 exercises
// and the embedded %%fun procedural UDF prefix, handing both to the
// tagged-variant representations components C/D/E already understand.
// The AST-to-plan transformation proper stays an external collaborator
// per spec.md §1: this package only extracts the facts engine's
// operator-DAG builder needs, it never optimizes or validates general
// SQL.
package sqlfront

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/imotai/HybridSE/codegen"
)

// Projection is one item of a SELECT's projection list: either a bare
// column reference or a function call (a builtin aggregate such as
// sum, or a %%fun-defined UDF), optionally evaluated over a window.
type Projection struct {
	// Column is set when this projection is a bare column reference.
	Column string
	// Call is set when this projection is a function call.
	Call *codegen.Expr
	// Window names the WINDOW clause this projection is evaluated
	// over, or "" for an unwindowed projection.
	Window string
}

// WindowSpec is a parsed `WINDOW w AS (PARTITION BY ... ORDER BY ...)`
// clause.
type WindowSpec struct {
	Name        string
	PartitionBy []string
	OrderBy     []string
}

// Query is the tagged-variant result of parsing one outer SELECT
// statement: the facts engine's operator-DAG builder needs, nothing
// more.
type Query struct {
	Table       string
	Projections []Projection
	Windows     map[string]WindowSpec
	Limit       *int64
	// Func holds the embedded %%fun definition, or nil if the query
	// had no %%fun prefix.
	Func *FuncDef
}

// ParseQuery parses one SQL statement, which may be prefixed with a
// "%%fun <def> %%sql " embedded procedural function definition, into a
// Query.
func ParseQuery(sql string) (*Query, error) {
	q, err := parseQuery(sql)
	if err != nil {
		return nil, &SQLError{Query: sql, Err: err}
	}
	return q, nil
}

func parseQuery(sql string) (*Query, error) {
	fnSrc, selectSQL, err := splitFunPrefix(sql)
	if err != nil {
		return nil, err
	}

	var fn *FuncDef
	if fnSrc != "" {
		fn, err = ParseFunction(fnSrc)
		if err != nil {
			return nil, err
		}
	}

	stmt, err := parseSelect(selectSQL)
	if err != nil {
		return nil, err
	}

	q, err := convertSelect(stmt)
	if err != nil {
		return nil, err
	}
	q.Func = fn
	return q, nil
}

// splitFunPrefix splits "%%fun <def> %%sql <select>" into its two
// halves. A sql string with no %%fun marker is returned unchanged as
// the select half.
func splitFunPrefix(sql string) (fnSrc string, selectSQL string, err error) {
	const funMarker = "%%fun"
	const sqlMarker = "%%sql"

	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(trimmed, funMarker) {
		return "", trimmed, nil
	}
	rest := trimmed[len(funMarker):]
	idx := strings.Index(rest, sqlMarker)
	if idx < 0 {
		return "", "", fmt.Errorf("sqlfront: %%fun block missing closing %%sql marker")
	}
	return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+len(sqlMarker):]), nil
}

func parseSelect(sql string) (*ast.SelectStmt, error) {
	p := parser.New()
	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("sqlfront: parse error: %w", err)
	}
	if len(stmtNodes) != 1 {
		return nil, fmt.Errorf("sqlfront: expected exactly one statement, got %d", len(stmtNodes))
	}
	sel, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("sqlfront: expected a SELECT statement, got %T", stmtNodes[0])
	}
	return sel, nil
}

func convertSelect(stmt *ast.SelectStmt) (*Query, error) {
	q := &Query{Windows: make(map[string]WindowSpec)}

	table, err := tableName(stmt)
	if err != nil {
		return nil, err
	}
	q.Table = table

	for _, ws := range stmt.WindowSpecs {
		spec := WindowSpec{Name: ws.Name.O}
		if ws.PartitionBy != nil {
			for _, item := range ws.PartitionBy.Items {
				if col, ok := columnName(item.Expr); ok {
					spec.PartitionBy = append(spec.PartitionBy, col)
				}
			}
		}
		if ws.OrderBy != nil {
			for _, item := range ws.OrderBy.Items {
				if col, ok := columnName(item.Expr); ok {
					spec.OrderBy = append(spec.OrderBy, col)
				}
			}
		}
		q.Windows[spec.Name] = spec
	}

	if stmt.Fields != nil {
		for _, field := range stmt.Fields.Fields {
			proj, err := convertField(field)
			if err != nil {
				return nil, err
			}
			q.Projections = append(q.Projections, proj)
		}
	}

	if stmt.Limit != nil && stmt.Limit.Count != nil {
		n, ok := intLiteral(stmt.Limit.Count)
		if !ok {
			return nil, fmt.Errorf("sqlfront: LIMIT count must be an integer literal")
		}
		q.Limit = &n
	}

	return q, nil
}

func tableName(stmt *ast.SelectStmt) (string, error) {
	if stmt.From == nil || stmt.From.TableRefs == nil {
		return "", fmt.Errorf("sqlfront: SELECT has no FROM clause")
	}
	join := stmt.From.TableRefs
	src, ok := join.Left.(*ast.TableSource)
	if !ok {
		return "", fmt.Errorf("sqlfront: expected a plain table source in FROM, got %T", join.Left)
	}
	name, ok := src.Source.(*ast.TableName)
	if !ok {
		return "", fmt.Errorf("sqlfront: only single-table FROM is supported, got %T", src.Source)
	}
	return name.Name.O, nil
}

func convertField(field *ast.SelectField) (Projection, error) {
	if field.WildCard != nil {
		return Projection{}, fmt.Errorf("sqlfront: SELECT * is not supported, name columns explicitly")
	}
	if col, ok := columnName(field.Expr); ok {
		return Projection{Column: col}, nil
	}
	if win, ok := field.Expr.(*ast.WindowFuncExpr); ok {
		call, err := windowCallExpr(win)
		if err != nil {
			return Projection{}, err
		}
		windowName := win.Spec.Name.O
		return Projection{Call: call, Window: windowName}, nil
	}
	if fn, ok := field.Expr.(*ast.FuncCallExpr); ok {
		call, err := funcCallExpr(fn)
		if err != nil {
			return Projection{}, err
		}
		return Projection{Call: call}, nil
	}
	return Projection{}, fmt.Errorf("sqlfront: unsupported projection expression %T", field.Expr)
}

func windowCallExpr(win *ast.WindowFuncExpr) (*codegen.Expr, error) {
	args := make([]*codegen.Expr, 0, len(win.Args))
	for _, a := range win.Args {
		col, ok := columnName(a)
		if !ok {
			return nil, fmt.Errorf("sqlfront: window function arguments must be plain columns")
		}
		args = append(args, codegen.Ident(col))
	}
	return codegen.Call(strings.ToLower(win.Name), args...), nil
}

func funcCallExpr(fn *ast.FuncCallExpr) (*codegen.Expr, error) {
	args := make([]*codegen.Expr, 0, len(fn.Args))
	for _, a := range fn.Args {
		e, err := convertScalarExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return codegen.Call(strings.ToLower(fn.FnName.O), args...), nil
}

// convertScalarExpr handles the small set of scalar expressions that
// can appear as a function-call argument in the supported SQL surface:
// plain columns and nested calls.
func convertScalarExpr(e ast.ExprNode) (*codegen.Expr, error) {
	if col, ok := columnName(e); ok {
		return codegen.Ident(col), nil
	}
	if fn, ok := e.(*ast.FuncCallExpr); ok {
		return funcCallExpr(fn)
	}
	return nil, fmt.Errorf("sqlfront: unsupported expression %T", e)
}

func columnName(e ast.ExprNode) (string, bool) {
	col, ok := e.(*ast.ColumnNameExpr)
	if !ok {
		return "", false
	}
	return col.Name.Name.O, true
}

func intLiteral(e ast.ExprNode) (int64, bool) {
	valuer, ok := e.(interface{ GetValue() any })
	if !ok {
		return 0, false
	}
	switch v := valuer.GetValue().(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}
