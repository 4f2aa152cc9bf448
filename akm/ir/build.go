package ir

import (
	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/ast"
	"github.com/chazu/akmc/akm/frontend"
)

// CapLookup resolves an AKM.CAPS.<NAME> identifier to its bit value; it's
// threaded through to the restricted constant evaluator for literal
// expressions that reference capability constants outside the module
// config object (rare, but not excluded by spec §4.1/§4.2).
type CapLookup func(string) (akm.Capability, bool)

// Build lowers every extracted function into IR, in the order functions
// were first encountered by the frontend (spec §4.2 "IR builder").
// Command registration synthesis (spec §4.2 "Init prologue injection")
// happens separately in InjectCommands once the init function exists.
func Build(fr *frontend.Result, caps CapLookup) *Module {
	mod := NewModule()
	for _, name := range fr.FunctionOrder {
		src := fr.Functions[name]
		fn := &Function{
			Name:   src.Name,
			Params: src.Params,
			IsInit: src.Name == "init",
			IsExit: src.Name == "exit",
		}
		if src.Body != nil {
			for _, stmt := range src.Body.Body {
				walkStmt(fn, stmt, caps)
			}
		}
		fn.EnsureTerminator()
		mod.AddFunction(fn)
		for _, ins := range fn.Instructions {
			if ins.OperandKind == OperandString {
				mod.Strings.Intern(ins.Str)
			}
		}
	}
	return mod
}

// walkNode recurses into a node only if it is a statement; bare
// expressions reachable as OtherStmt children (loop/if conditions) are
// not evaluated, matching the "three statement shapes" restriction.
func walkNode(fn *Function, n ast.Node, caps CapLookup) {
	if s, ok := n.(ast.Stmt); ok {
		walkStmt(fn, s, caps)
	}
}

func walkStmt(fn *Function, stmt ast.Stmt, caps CapLookup) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		lowerExprStmt(fn, s, caps)
	case *ast.VarDecl:
		lowerVarDecl(fn, s, caps)
	case *ast.ReturnStmt:
		lowerReturn(fn, s, caps)
	case *ast.BlockStmt:
		for _, child := range s.Body {
			walkStmt(fn, child, caps)
		}
	case *ast.OtherStmt:
		for _, child := range s.Children {
			walkNode(fn, child, caps)
		}
	case *ast.ExportNamedDecl:
		if s.Declaration != nil {
			walkNode(fn, s.Declaration, caps)
		}
	case *ast.FunctionDecl:
		// Nested function declarations aren't recognized extraction
		// targets (spec §4.1); traversed for completeness, never lowered.
	}
}

func lowerExprStmt(fn *Function, s *ast.ExprStmt, caps CapLookup) {
	call, ok := s.Expr.(*ast.CallExpr)
	if !ok {
		return
	}
	if method, ok := akmAPIMethod(call); ok {
		lowerAPICall(fn, method, call.Arguments, caps)
		return
	}
	if id, ok := call.Callee.(*ast.Identifier); ok {
		// Regular call: arguments are not evaluated in this minimal
		// lowering (spec §4.2 documents this as a known simplification).
		fn.Emit(Call(id.Name, len(call.Arguments)))
	}
}

// akmAPIMethod returns (method, true) for "AKM.method(...)" calls other
// than the module/command forms, which the frontend already consumed.
func akmAPIMethod(call *ast.CallExpr) (string, bool) {
	m, ok := call.Callee.(*ast.MemberExpr)
	if !ok {
		return "", false
	}
	id, ok := m.Object.(*ast.Identifier)
	if !ok || id.Name != "AKM" {
		return "", false
	}
	if m.Property == "module" || m.Property == "command" {
		return "", false
	}
	return m.Property, true
}

func lowerAPICall(fn *Function, method string, args []ast.Expr, caps CapLookup) {
	for _, arg := range args {
		if id, ok := arg.(*ast.Identifier); ok {
			fn.Emit(LoadLocal(id.Name))
			continue
		}
		val := frontend.EvalConst(arg, capLookupAdapter(caps))
		switch val.Kind {
		case frontend.KindString:
			fn.Emit(PushStr(val.Str))
		case frontend.KindNumber:
			fn.Emit(Push(val.Number))
		default:
			fn.Emit(Push(0))
		}
	}
	fn.Emit(CallAPI(method, len(args)))
}

func lowerVarDecl(fn *Function, s *ast.VarDecl, caps CapLookup) {
	for _, d := range s.Declarators {
		fn.AddLocal(d.Name)
		if d.Init == nil {
			continue
		}
		val := frontend.EvalConst(d.Init, capLookupAdapter(caps))
		switch val.Kind {
		case frontend.KindNumber:
			fn.Emit(StoreLocal(d.Name, Push(val.Number)))
		case frontend.KindString:
			fn.Emit(StoreLocal(d.Name, PushString(val.Str)))
		default:
			if op, left, right, ok := arithOperands(d.Init); ok {
				lowerExprInto(fn, left, caps)
				lowerExprInto(fn, right, caps)
				fn.Emit(Instruction{Op: op})
				fn.Emit(Instruction{Op: akm.OpStoreLocal, Name: d.Name})
				continue
			}
			fn.Emit(StoreLocal(d.Name, Push(0)))
		}
	}
}

func lowerReturn(fn *Function, s *ast.ReturnStmt, caps CapLookup) {
	if s.Argument != nil {
		lowerExprInto(fn, s.Argument, caps)
	}
	fn.Emit(Ret())
}

// lowerExprInto emits expr into fn for a PUSH-carrying position (return
// value, var-decl initializer, or an operand of an outer arithmetic
// expression). A fully-constant expression under the restricted
// evaluator — a literal, a negation, or an `AKM.CAPS.A | AKM.CAPS.B`
// chain — collapses to the single PUSH/PUSH_STR its value resolves to.
// A binary expression the evaluator doesn't fold on its own (spec §4.1
// only folds "|") instead recurses into its operands and emits the
// corresponding opcode, leaving akm/optimize's ConstantFold pass to
// collapse the resulting PUSH/PUSH/<op> triple when both sides turn out
// to be constant. Anything else falls back to PUSH 0, per spec §4.2.
func lowerExprInto(fn *Function, expr ast.Expr, caps CapLookup) {
	val := frontend.EvalConst(expr, capLookupAdapter(caps))
	switch val.Kind {
	case frontend.KindNumber:
		fn.Emit(Push(val.Number))
		return
	case frontend.KindString:
		fn.Emit(PushString(val.Str))
		return
	}
	if op, left, right, ok := arithOperands(expr); ok {
		lowerExprInto(fn, left, caps)
		lowerExprInto(fn, right, caps)
		fn.Emit(Instruction{Op: op})
		return
	}
	fn.Emit(Push(0))
}

// arithOperands reports whether expr is a binary expression whose
// operator names one of the stack machine's two-operand arithmetic or
// bitwise opcodes, returning that opcode and the two operand expressions.
func arithOperands(expr ast.Expr) (akm.Opcode, ast.Expr, ast.Expr, bool) {
	bin, ok := expr.(*ast.BinaryExpr)
	if !ok {
		return 0, nil, nil, false
	}
	op, ok := arithOpcode(bin.Op)
	return op, bin.Left, bin.Right, ok
}

// arithOpcode maps a source binary operator to its IR opcode. Only the
// operators akm/parser's precedence chain actually produces are
// recognized (+ - * / & | ^); the parser has no modulo or shift tokens.
func arithOpcode(op string) (akm.Opcode, bool) {
	switch op {
	case "+":
		return akm.OpAdd, true
	case "-":
		return akm.OpSub, true
	case "*":
		return akm.OpMul, true
	case "/":
		return akm.OpDiv, true
	case "&":
		return akm.OpAnd, true
	case "|":
		return akm.OpOr, true
	case "^":
		return akm.OpXor, true
	default:
		return 0, false
	}
}

func capLookupAdapter(caps CapLookup) func(string) (uint32, bool) {
	if caps == nil {
		return nil
	}
	return func(name string) (uint32, bool) {
		bit, ok := caps(name)
		return uint32(bit), ok
	}
}
