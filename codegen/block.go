package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

const (
	iteratorCreateSym  = "__iterator_create"
	iteratorHasNextSym = "__iterator_has_next"
	iteratorNextSym    = "__iterator_next"
	iteratorDeleteSym  = "__iterator_delete"
)

// ensureIteratorFuncs lazily declares the four external symbols the
// list component is expected to provide: create an iterator over a
// container handle, test/advance it, and release it. They are declared
// at most once per module regardless of how many for-in loops lower
// against it.
func (b *Builder) ensureIteratorFuncs() {
	if b.iterCreate != nil {
		return
	}
	b.iterCreate = b.Module.NewFunc(iteratorCreateSym, handleType, ir.NewParam("container", handleType))
	b.iterHasNext = b.Module.NewFunc(iteratorHasNextSym, types.I1, ir.NewParam("iter", handleType))
	b.iterNext = b.Module.NewFunc(iteratorNextSym, handleType, ir.NewParam("iter", handleType))
	b.iterDelete = b.Module.NewFunc(iteratorDeleteSym, handleType, ir.NewParam("iter", handleType))
}

// buildStmtList lowers stmts in order starting at block, threading the
// current insertion point, and returns whether control terminated
// (via an explicit return, or an if/elif/else whose arms all
// returned) before reaching the end of the list. When it did not
// terminate, the caller's endBlock receives an unconditional
// fall-through branch from the final insertion point — emitted
// exactly once, only on the non-terminated path, which is what keeps
// an already-terminated block from ever receiving a second
// terminator.
func (b *Builder) buildStmtList(fn *ir.Func, block, endBlock *ir.Block, stmts []*Stmt) (bool, error) {
	cur := block
	for _, stmt := range stmts {
		switch stmt.Kind {
		case StmtAssign:
			if err := b.buildAssign(cur, stmt); err != nil {
				return false, err
			}
		case StmtReturn:
			if err := b.buildReturn(cur, stmt); err != nil {
				return false, err
			}
			return true, nil
		case StmtIfElse:
			next, terminated, err := b.buildIfElseStmt(fn, cur, stmt)
			if err != nil {
				return false, err
			}
			if terminated {
				return true, nil
			}
			cur = next
		case StmtForIn:
			next, err := b.buildForInStmt(fn, cur, stmt)
			if err != nil {
				return false, err
			}
			cur = next
		default:
			return false, fmt.Errorf("codegen: unknown statement kind %d", stmt.Kind)
		}
	}
	if endBlock != nil {
		cur.NewBr(endBlock)
	}
	return false, nil
}

func (b *Builder) buildAssign(block *ir.Block, stmt *Stmt) error {
	v, err := b.buildExpr(block, stmt.Expr)
	if err != nil {
		return err
	}
	if v.isHandle {
		b.bindHandle(stmt.Name, v.val)
		return nil
	}
	b.bindScalar(stmt.Name, v.val, v.scalar)
	return nil
}

func (b *Builder) buildReturn(block *ir.Block, stmt *Stmt) error {
	v, err := b.buildExpr(block, stmt.ReturnExpr)
	if err != nil {
		return err
	}
	b.clearAllScopeValues(block)
	block.NewRet(v.val)
	return nil
}

// clearAllScopeValues destroys every iterator handle owned by any live
// scope, innermost first, before a return instruction — the
// ClearAllScopeValues contract.
func (b *Builder) clearAllScopeValues(block *ir.Block) {
	all := b.scopes.AllIterators()
	if len(all) == 0 {
		return
	}
	b.ensureIteratorFuncs()
	for _, it := range all {
		block.NewCall(b.iterDelete, it)
	}
}

// clearScopeValue destroys only the innermost live scope's iterator
// handles, on natural loop exit — the ClearScopeValue contract.
func (b *Builder) clearScopeValue(block *ir.Block) {
	inner := b.scopes.InnermostIterators()
	if len(inner) == 0 {
		return
	}
	b.ensureIteratorFuncs()
	for _, it := range inner {
		block.NewCall(b.iterDelete, it)
	}
}

// buildIfElseStmt lowers an if/elif/else statement and returns the
// block where lowering should resume plus whether every arm
// terminated (in which case the returned block is not meaningful and
// terminated is true).
func (b *Builder) buildIfElseStmt(fn *ir.Func, cur *ir.Block, stmt *Stmt) (*ir.Block, bool, error) {
	ifEnd := fn.NewBlock("if_else_end")
	if err := b.buildIfElseChain(fn, cur, ifEnd, stmt); err != nil {
		return nil, false, err
	}
	if !blockHasPredecessor(fn, ifEnd) {
		// Every arm returned: if_else_end is unreachable. It must not
		// linger in the function with no terminator of its own, so it
		// is dropped rather than left as a dangling empty block.
		removeBlock(fn, ifEnd)
		return nil, true, nil
	}
	return ifEnd, false, nil
}

// removeBlock splices an unused, never-terminated block back out of
// fn's block list.
func removeBlock(fn *ir.Func, target *ir.Block) {
	kept := fn.Blocks[:0]
	for _, blk := range fn.Blocks {
		if blk != target {
			kept = append(kept, blk)
		}
	}
	fn.Blocks = kept
}

// blockHasPredecessor reports whether any block in fn branches to
// target, used to detect that every arm of an if/elif/else statement
// terminated (returned) so the enclosing block lowering can stop
// emitting rather than fall through into a dead, predecessor-less
// block.
func blockHasPredecessor(fn *ir.Func, target *ir.Block) bool {
	for _, blk := range fn.Blocks {
		switch term := blk.Term.(type) {
		case *ir.TermBr:
			if term.Target == target {
				return true
			}
		case *ir.TermCondBr:
			if term.TargetTrue == target || term.TargetFalse == target {
				return true
			}
		}
	}
	return false
}

// buildIfElseChain lowers the if condition, its elif chain, and its
// else arm (or an unconditional branch to ifEnd if there is none),
// linking every arm's fall-through to ifEnd.
func (b *Builder) buildIfElseChain(fn *ir.Func, start, ifEnd *ir.Block, stmt *Stmt) error {
	cond, err := b.buildExpr(start, stmt.Cond)
	if err != nil {
		return err
	}
	condVal, err := b.asBool(start, cond)
	if err != nil {
		return err
	}
	condTrue := fn.NewBlock("cond_true")
	condFalse := fn.NewBlock("cond_false")
	start.NewCondBr(condVal, condTrue, condFalse)

	if _, err := b.buildStmtList(fn, condTrue, ifEnd, stmt.Body); err != nil {
		return err
	}

	cur := condFalse
	for _, elif := range stmt.Elifs {
		elifCond, err := b.buildExpr(cur, elif.Cond)
		if err != nil {
			return err
		}
		elifVal, err := b.asBool(cur, elifCond)
		if err != nil {
			return err
		}
		elifTrue := fn.NewBlock("cond_true")
		elifFalse := fn.NewBlock("cond_false")
		cur.NewCondBr(elifVal, elifTrue, elifFalse)
		if _, err := b.buildStmtList(fn, elifTrue, ifEnd, elif.Body); err != nil {
			return err
		}
		cur = elifFalse
	}

	if stmt.Else == nil {
		cur.NewBr(ifEnd)
		return nil
	}
	_, err = b.buildStmtList(fn, cur, ifEnd, stmt.Else)
	return err
}

// buildForInStmt lowers a for-in loop per the scope-entry/iterator/
// cleanup contract and returns the block where lowering resumes.
func (b *Builder) buildForInStmt(fn *ir.Func, cur *ir.Block, stmt *Stmt) (*ir.Block, error) {
	b.enter("for_in_block")

	container, err := b.buildExpr(cur, stmt.In)
	if err != nil {
		return nil, err
	}
	b.ensureIteratorFuncs()
	iter := cur.NewCall(b.iterCreate, container.val)
	b.scopes.AddIteratorValue(iter)

	loopCond := fn.NewBlock("loop_cond")
	loop := fn.NewBlock("loop")
	end := fn.NewBlock("end")
	cur.NewBr(loopCond)

	hasNext := loopCond.NewCall(b.iterHasNext, iter)
	loopCond.NewCondBr(hasNext, loop, end)

	next := loop.NewCall(b.iterNext, iter)
	b.bindHandle(stmt.Var, next)

	if _, err := b.buildStmtList(fn, loop, loopCond, stmt.Body); err != nil {
		return nil, err
	}

	b.clearScopeValue(end)
	b.exit()
	return end, nil
}
