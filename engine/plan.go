package engine

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"

	"github.com/imotai/HybridSE/codegen"
	"github.com/imotai/HybridSE/codegen/jit"
	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/sqlfront"
)

// OpKind tags the single operator variant held by an Op, mirroring the
// codegen package's tagged-variant Stmt/Expr nodes (spec.md §9's
// REDESIGN FLAG) rather than a polymorphic operator class hierarchy.
type OpKind uint8

const (
	OpScan OpKind = iota
	OpProjectSimple
	OpProjectWindowed
	OpMerge
	OpLimit
)

// Op is one node of the operator DAG spec.md §4.E describes: Scan,
// Project (simple or windowed), Merge (placeholder, never constructed
// by buildPlan — see DESIGN.md), Limit.
type Op struct {
	Kind OpKind

	// OpProjectSimple with FuncDef == nil: a bare column passthrough.
	ColIdx int

	// OpProjectSimple with FuncDef != nil: a compiled scalar UDF call.
	FuncDef    *sqlfront.FuncDef
	Module     jit.Module
	ArgColIdxs []int

	// OpProjectWindowed: a host-evaluated window aggregate.
	AggFunc     string
	AggColIdx   int
	KeyColIdx   int
	OrderColIdx int

	// OpLimit
	LimitN int

	// OpMerge
	Left, Right int
}

// Plan is an ordered operator list. The supported shape is exactly
// spec.md §4.E's "scan -> project -> limit"; OpMerge exists as a type
// for fidelity with the spec's DAG vocabulary but buildPlan never
// constructs one (see DESIGN.md's MergeOp placeholder note).
type Plan struct {
	Ops []Op
}

// buildPlan compiles a parsed Query against the source table's schema
// into a Plan plus the schema of its projected output.
func buildPlan(q *sqlfront.Query, tableSchema *row.Schema) (*Plan, *row.Schema, error) {
	if len(q.Projections) != 1 {
		return nil, nil, fmt.Errorf("%w: expected exactly one projection, got %d", ErrUnsupportedQuery, len(q.Projections))
	}
	proj := q.Projections[0]

	plan := &Plan{Ops: []Op{{Kind: OpScan}}}

	var outSchema *row.Schema
	switch {
	case proj.Column != "":
		idx := tableSchema.ColumnIndex(proj.Column)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, proj.Column)
		}
		plan.Ops = append(plan.Ops, Op{Kind: OpProjectSimple, ColIdx: idx})
		col := tableSchema.Get(idx)
		schema, err := row.NewSchema(row.Column{Name: col.Name, Type: col.Type})
		if err != nil {
			return nil, nil, err
		}
		outSchema = schema

	case proj.Window != "":
		op, schema, err := buildWindowedProject(proj, q, tableSchema)
		if err != nil {
			return nil, nil, err
		}
		plan.Ops = append(plan.Ops, op)
		outSchema = schema

	case proj.Call != nil:
		op, schema, err := buildSimpleUDFProject(proj, q, tableSchema)
		if err != nil {
			return nil, nil, err
		}
		plan.Ops = append(plan.Ops, op)
		outSchema = schema

	default:
		return nil, nil, fmt.Errorf("%w: empty projection", ErrUnsupportedQuery)
	}

	if q.Limit != nil {
		plan.Ops = append(plan.Ops, Op{Kind: OpLimit, LimitN: int(*q.Limit)})
	}

	return plan, outSchema, nil
}

func buildWindowedProject(proj sqlfront.Projection, q *sqlfront.Query, tableSchema *row.Schema) (Op, *row.Schema, error) {
	spec, ok := q.Windows[proj.Window]
	if !ok {
		return Op{}, nil, fmt.Errorf("%w: window %q not declared", ErrUnsupportedQuery, proj.Window)
	}
	if len(spec.PartitionBy) != 1 {
		return Op{}, nil, fmt.Errorf("%w: window must partition by exactly one column", ErrUnsupportedQuery)
	}
	if len(proj.Call.Args) != 1 {
		return Op{}, nil, fmt.Errorf("%w: window aggregate must take exactly one argument", ErrUnsupportedQuery)
	}
	argName := proj.Call.Args[0].Name
	aggColIdx := tableSchema.ColumnIndex(argName)
	if aggColIdx < 0 {
		return Op{}, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, argName)
	}
	keyColIdx := tableSchema.ColumnIndex(spec.PartitionBy[0])
	if keyColIdx < 0 {
		return Op{}, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, spec.PartitionBy[0])
	}
	orderColIdx := -1
	if len(spec.OrderBy) == 1 {
		orderColIdx = tableSchema.ColumnIndex(spec.OrderBy[0])
		if orderColIdx < 0 {
			return Op{}, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, spec.OrderBy[0])
		}
		if tableSchema.Get(orderColIdx).Type != row.Int64 {
			return Op{}, nil, fmt.Errorf("%w: order column %q must be i64, not %s", ErrUnsupportedQuery, spec.OrderBy[0], tableSchema.Get(orderColIdx).Type)
		}
	}
	aggFunc := strings.ToLower(proj.Call.Callee)
	if !isSupportedAggregate(aggFunc) {
		return Op{}, nil, fmt.Errorf("%w: unsupported window aggregate %q", ErrUnsupportedQuery, aggFunc)
	}

	col := tableSchema.Get(aggColIdx)
	outSchema, err := row.NewSchema(row.Column{Name: aggFunc + "_" + col.Name, Type: col.Type})
	if err != nil {
		return Op{}, nil, err
	}

	return Op{
		Kind:        OpProjectWindowed,
		AggFunc:     aggFunc,
		AggColIdx:   aggColIdx,
		KeyColIdx:   keyColIdx,
		OrderColIdx: orderColIdx,
	}, outSchema, nil
}

func buildSimpleUDFProject(proj sqlfront.Projection, q *sqlfront.Query, tableSchema *row.Schema) (Op, *row.Schema, error) {
	if q.Func == nil || !strings.EqualFold(proj.Call.Callee, q.Func.Name) {
		return Op{}, nil, fmt.Errorf("%w: call to undefined function %q", ErrUnsupportedQuery, proj.Call.Callee)
	}
	if len(proj.Call.Args) != len(q.Func.Params) {
		return Op{}, nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrUnsupportedQuery, q.Func.Name, len(q.Func.Params), len(proj.Call.Args))
	}

	argColIdxs := make([]int, len(proj.Call.Args))
	for i, a := range proj.Call.Args {
		idx := tableSchema.ColumnIndex(a.Name)
		if idx < 0 {
			return Op{}, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, a.Name)
		}
		argColIdxs[i] = idx
	}

	module, err := compileFuncDef(q.Func)
	if err != nil {
		return Op{}, nil, err
	}

	outSchema, err := row.NewSchema(row.Column{Name: q.Func.Name, Type: valueTypeToColumnType(q.Func.Ret)})
	if err != nil {
		return Op{}, nil, err
	}

	return Op{
		Kind:       OpProjectSimple,
		FuncDef:    q.Func,
		Module:     module,
		ArgColIdxs: argColIdxs,
	}, outSchema, nil
}

// compileFuncDef lowers a %%fun definition through codegen's
// expression/block/function IR builder and materializes it through
// the non-native jit.InterpBackend — the exact C/D -> I pipeline
// spec.md §4.E's "run 4.C/4.D to emit an IR module; submit to the
// JIT" step describes.
func compileFuncDef(def *sqlfront.FuncDef) (jit.Module, error) {
	mod := ir.NewModule()
	b := codegen.NewBuilder(mod)
	fn, entry := b.NewFunction(def.Name, def.Params, def.Ret)
	if err := b.BuildBody(fn, entry, def.Body); err != nil {
		return nil, fmt.Errorf("engine: compile function %q: %w", def.Name, err)
	}

	backend := jit.InterpBackend{}
	materialized, err := backend.Materialize(mod, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: materialize function %q: %w", def.Name, err)
	}
	return materialized, nil
}

func isSupportedAggregate(name string) bool {
	switch name {
	case "sum":
		return true
	default:
		return false
	}
}

func valueTypeToColumnType(t codegen.ValueType) row.ColumnType {
	switch t {
	case codegen.TBool:
		return row.Bool
	case codegen.TInt16:
		return row.Int16
	case codegen.TInt32:
		return row.Int32
	case codegen.TInt64:
		return row.Int64
	case codegen.TFloat32:
		return row.Float32
	case codegen.TFloat64:
		return row.Float64
	default:
		return row.Int32
	}
}
