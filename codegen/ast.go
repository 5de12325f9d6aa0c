package codegen

// ExprKind tags the variant held by an Expr. Procedural expressions use
// a flat tagged-variant node instead of a polymorphic class hierarchy,
// so lowering is a single type switch over Kind rather than virtual
// dispatch.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprIdent
	ExprUnary
	ExprBinary
	ExprCompare
	ExprCall
	ExprCast
)

// BinOp is a binary arithmetic or comparison operator.
type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpMod BinOp = "%"

	OpEQ BinOp = "=="
	OpNE BinOp = "!="
	OpLT BinOp = "<"
	OpLE BinOp = "<="
	OpGT BinOp = ">"
	OpGE BinOp = ">="
)

// UnaryOp is a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// Expr is a tagged-variant procedural expression node. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Expr struct {
	Kind ExprKind

	// ExprLiteral
	LitType  ValueType
	LitBool  bool
	LitInt   int64
	LitFloat float64

	// ExprIdent
	Name string

	// ExprUnary
	UnOp UnaryOp
	X    *Expr

	// ExprBinary / ExprCompare
	BinOp BinOp
	Y     *Expr

	// ExprCall
	Callee string
	Args   []*Expr

	// ExprCast
	Target ValueType
}

// Lit builds a literal Expr of the given type.
func Lit(t ValueType, i int64, f float64, b bool) *Expr {
	return &Expr{Kind: ExprLiteral, LitType: t, LitInt: i, LitFloat: f, LitBool: b}
}

// Ident builds a variable-reference Expr.
func Ident(name string) *Expr {
	return &Expr{Kind: ExprIdent, Name: name}
}

// Binary builds a binary arithmetic Expr.
func Binary(op BinOp, x, y *Expr) *Expr {
	return &Expr{Kind: ExprBinary, BinOp: op, X: x, Y: y}
}

// Compare builds a comparison Expr (always yields bool).
func Compare(op BinOp, x, y *Expr) *Expr {
	return &Expr{Kind: ExprCompare, BinOp: op, X: x, Y: y}
}

// Unary builds a unary Expr.
func Unary(op UnaryOp, x *Expr) *Expr {
	return &Expr{Kind: ExprUnary, UnOp: op, X: x}
}

// Call builds a function-call Expr.
func Call(callee string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Callee: callee, Args: args}
}

// Cast builds an explicit cast Expr, reachable only through this
// constructor — never emitted implicitly by operand promotion.
func Cast(target ValueType, x *Expr) *Expr {
	return &Expr{Kind: ExprCast, Target: target, X: x}
}

// StmtKind tags the variant held by a Stmt.
type StmtKind uint8

const (
	StmtAssign StmtKind = iota
	StmtReturn
	StmtIfElse
	StmtForIn
)

// ElifClause is one `elif cond { body }` arm of an if/elif/else chain.
type ElifClause struct {
	Cond *Expr
	Body []*Stmt
}

// Stmt is a tagged-variant procedural statement node.
type Stmt struct {
	Kind StmtKind

	// StmtAssign
	Name string
	Expr *Expr

	// StmtReturn
	ReturnExpr *Expr

	// StmtIfElse
	Cond  *Expr
	Body  []*Stmt
	Elifs []ElifClause
	Else  []*Stmt

	// StmtForIn
	Var string
	In  *Expr
}

// Assign builds an assignment Stmt.
func Assign(name string, expr *Expr) *Stmt {
	return &Stmt{Kind: StmtAssign, Name: name, Expr: expr}
}

// Return builds a return Stmt.
func Return(expr *Expr) *Stmt {
	return &Stmt{Kind: StmtReturn, ReturnExpr: expr}
}

// IfElse builds an if/elif/else Stmt.
func IfElse(cond *Expr, body []*Stmt, elifs []ElifClause, els []*Stmt) *Stmt {
	return &Stmt{Kind: StmtIfElse, Cond: cond, Body: body, Elifs: elifs, Else: els}
}

// ForIn builds a for-in loop Stmt.
func ForIn(varName string, in *Expr, body []*Stmt) *Stmt {
	return &Stmt{Kind: StmtForIn, Var: varName, In: in, Body: body}
}
