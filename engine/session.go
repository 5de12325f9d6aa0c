package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/imotai/HybridSE/codegen/jit"
	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/storage"
)

// Session binds a compiled Plan to one partition instance and runs it.
// A CompileInfo (and the Plan/Module it owns) may be shared across many
// concurrent sessions against different partitions of the same table.
type Session struct {
	info      *CompileInfo
	partition *storage.Partition
	log       *zap.Logger
}

// NewSession attaches info to partition, the concrete table data the
// plan's Scan op reads from. A nil logger falls back to zap.NewNop().
func NewSession(info *CompileInfo, partition *storage.Partition, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{info: info, partition: partition, log: log}
}

// OutputSchema returns the schema of the rows Run produces.
func (s *Session) OutputSchema() *row.Schema { return s.info.OutputSchema }

// Run executes the session's plan end to end and returns the projected
// output rows. limit <= 0 means unbounded scan (the query's own LIMIT
// clause, if any, still applies via the plan's trailing OpLimit).
func (s *Session) Run(limit int) ([][]byte, error) {
	tableSchema := s.partition.Schema()
	view := row.NewView(tableSchema)

	var rows [][]byte
	for _, op := range s.info.Plan.Ops {
		switch op.Kind {
		case OpScan:
			rows = s.runScan(limit)
		case OpProjectSimple:
			out, err := s.runProjectSimple(op, view, rows)
			if err != nil {
				return nil, err
			}
			rows = out
		case OpProjectWindowed:
			out, err := s.runProjectWindowed(op, view, rows)
			if err != nil {
				return nil, err
			}
			rows = out
		case OpLimit:
			if op.LimitN >= 0 && op.LimitN < len(rows) {
				rows = rows[:op.LimitN]
			}
		case OpMerge:
			return nil, fmt.Errorf("%w: MergeOp has no defined semantics (placeholder)", ErrUnsupportedQuery)
		default:
			return nil, fmt.Errorf("engine: unknown operator kind %d", op.Kind)
		}
	}
	return rows, nil
}

func (s *Session) runScan(limit int) [][]byte {
	it := s.partition.ScanAll()
	var rows [][]byte
	for it.Next() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		rows = append(rows, it.Row())
	}
	return rows
}

func (s *Session) runProjectSimple(op Op, view *row.View, in [][]byte) ([][]byte, error) {
	out := make([][]byte, 0, len(in))
	for _, r := range in {
		if err := view.Reset(r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUDFFailed, err)
		}
		var outRow []byte
		var err error
		if op.FuncDef == nil {
			outRow, err = projectColumn(view, op.ColIdx, s.info.OutputSchema)
		} else {
			outRow, err = s.projectUDF(op, view)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, outRow)
	}
	return out, nil
}

func (s *Session) projectUDF(op Op, view *row.View) ([]byte, error) {
	args := make([]jit.Value, len(op.ArgColIdxs))
	for i, colIdx := range op.ArgColIdxs {
		v, err := readJITValue(view, colIdx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	callable, ok := op.Module.Symbol(op.FuncDef.Name)
	if !ok {
		return nil, fmt.Errorf("%w: compiled symbol %q missing", ErrUDFFailed, op.FuncDef.Name)
	}
	result, err := callable(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUDFFailed, err)
	}
	return buildScalarRow(s.info.OutputSchema, result)
}

func (s *Session) runProjectWindowed(op Op, view *row.View, in [][]byte) ([][]byte, error) {
	keyCol := s.partition.Schema().Get(op.KeyColIdx)
	out := make([][]byte, 0, len(in))
	for rowIdx, r := range in {
		if err := view.Reset(r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUDFFailed, err)
		}
		key, err := view.GetAsString(op.KeyColIdx)
		if err != nil {
			s.log.Warn("windowed project: key extraction failed, skipping row",
				zap.Int("row", rowIdx), zap.String("column", keyCol.Name), zap.Error(err))
			continue
		}

		var it storage.RowIterator
		if op.OrderColIdx >= 0 {
			orderCol := s.partition.Schema().Get(op.OrderColIdx)
			if _, status := view.GetInt64(op.OrderColIdx); status != row.StatusOK {
				s.log.Warn("windowed project: order value extraction failed, skipping row",
					zap.Int("row", rowIdx), zap.String("column", orderCol.Name))
				continue
			}
			it, err = s.partition.ScanKeyOrdered(op.KeyColIdx, key, op.OrderColIdx)
		} else {
			it, err = s.partition.ScanKey(op.KeyColIdx, key)
		}
		if err != nil {
			s.log.Warn("windowed project: key scan failed, skipping row",
				zap.Int("row", rowIdx), zap.String("column", keyCol.Name), zap.Error(err))
			continue
		}
		result, err := evalAggregate(op.AggFunc, op.AggColIdx, s.partition.Schema(), it)
		if err != nil {
			s.log.Warn("windowed project: aggregate evaluation failed, skipping row",
				zap.Int("row", rowIdx), zap.String("column", keyCol.Name), zap.Error(err))
			continue
		}
		outRow, err := buildScalarRow(s.info.OutputSchema, result)
		if err != nil {
			return nil, err
		}
		out = append(out, outRow)
	}
	return out, nil
}
