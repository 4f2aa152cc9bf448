// Package frontend walks a parsed akm/ast.Program and extracts the four
// projections the compiler needs: the module configuration object, the
// set of extracted function definitions, command registrations, and
// host-API call sites. It also implements the restricted constant
// evaluator those extractions depend on.
package frontend

import (
	"fmt"

	"github.com/chazu/akmc/akm/ast"
)

// Kind selects which single field of a Value is meaningful.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindRef // unresolved identifier: { ref: name }
)

// Value is a constant value produced by EvalConst. Unresolvable
// identifiers evaluate to a Ref sentinel rather than failing outright,
// matching the "{ ref: name }" shape called for in source §4.1.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	Array  []Value
	Object []ObjectField
	Ref    string
}

// ObjectField is one key/value pair of an evaluated object literal.
type ObjectField struct {
	Key   string
	Value Value
}

func (v Value) IsRef() bool { return v.Kind == KindRef }

// String renders v for diagnostics and for template-literal concatenation.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindString:
		return v.Str
	case KindRef:
		return "{ref:" + v.Ref + "}"
	default:
		return ""
	}
}

// capabilityLookup resolves a bare name (the part after "AKM.CAPS.") to
// its numeric bit value. It's supplied by the caller (akm.CapabilityByName)
// to keep this package free of a direct akm import cycle concern — in
// practice frontend does import akm directly; the indirection exists so
// EvalConst's capability-OR handling stays a pure function of its inputs.
type capabilityLookup func(name string) (uint32, bool)

// EvalConst evaluates expr under the restricted constant evaluator
// described in spec §4.1: literals, negation, array/object literals,
// non-interpolated template literals, and `AKM.CAPS.A | AKM.CAPS.B`
// bitwise-OR chains. Anything else collapses to a Ref sentinel: a bare
// identifier yields a Ref naming it, and any other unsupported form a
// placeholder tag such as "<member>", "<binary:+>" or "?".
func EvalConst(expr ast.Expr, caps capabilityLookup) Value {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return Value{Kind: KindNumber, Number: e.Value}
	case *ast.StringLiteral:
		return Value{Kind: KindString, Str: e.Value}
	case *ast.BoolLiteral:
		return Value{Kind: KindBool, Bool: e.Value}
	case *ast.NullLiteral:
		return Value{Kind: KindNull}
	case *ast.TemplateLiteral:
		if e.HasSubstitutions {
			return Value{Kind: KindRef, Ref: "<template>"}
		}
		return Value{Kind: KindString, Str: e.Raw}
	case *ast.Identifier:
		return Value{Kind: KindRef, Ref: e.Name}
	case *ast.ArrayLiteral:
		arr := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			arr[i] = EvalConst(el, caps)
		}
		return Value{Kind: KindArray, Array: arr}
	case *ast.ObjectLiteral:
		fields := make([]ObjectField, len(e.Properties))
		for i, prop := range e.Properties {
			fields[i] = ObjectField{Key: prop.Key, Value: EvalConst(prop.Value, caps)}
		}
		return Value{Kind: KindObject, Object: fields}
	case *ast.UnaryExpr:
		if e.Op == "-" {
			inner := EvalConst(e.Operand, caps)
			if inner.Kind == KindNumber {
				return Value{Kind: KindNumber, Number: -inner.Number}
			}
			return Value{Kind: KindRef, Ref: "<negation>"}
		}
		return Value{Kind: KindRef, Ref: "<unary:" + e.Op + ">"}
	case *ast.MemberExpr:
		if name, ok := capsMemberName(e); ok && caps != nil {
			if bit, ok := caps(name); ok {
				return Value{Kind: KindNumber, Number: float64(bit)}
			}
		}
		return Value{Kind: KindRef, Ref: "<member>"}
	case *ast.BinaryExpr:
		if e.Op == "|" {
			left := EvalConst(e.Left, caps)
			right := EvalConst(e.Right, caps)
			if left.Kind == KindNumber && right.Kind == KindNumber {
				folded := uint32(int64(left.Number)) | uint32(int64(right.Number))
				return Value{Kind: KindNumber, Number: float64(folded)}
			}
			return Value{Kind: KindRef, Ref: "<caps-or>"}
		}
		return Value{Kind: KindRef, Ref: "<binary:" + e.Op + ">"}
	default:
		return Value{Kind: KindRef, Ref: "?"}
	}
}

// capsMemberName recognizes "AKM.CAPS.NAME" member-access chains and
// returns NAME.
func capsMemberName(m *ast.MemberExpr) (string, bool) {
	inner, ok := m.Object.(*ast.MemberExpr)
	if !ok {
		return "", false
	}
	outer, ok := inner.Object.(*ast.Identifier)
	if !ok || outer.Name != "AKM" || inner.Property != "CAPS" {
		return "", false
	}
	return m.Property, true
}

// asString reports whether v is a string value and returns it.
func asString(v Value) (string, bool) {
	if v.Kind == KindString {
		return v.Str, true
	}
	return "", false
}

// objectField looks up a key within an evaluated object literal.
func objectField(obj []ObjectField, key string) (Value, bool) {
	for _, f := range obj {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// stringField fetches a string-valued key from an object, falling back
// to def when absent or not a string.
func stringField(obj []ObjectField, key, def string) string {
	if v, ok := objectField(obj, key); ok {
		if s, ok := asString(v); ok {
			return s
		}
	}
	return def
}

// isAKMIdent reports whether expr is the bare "AKM" global sentinel.
// Spec §9 notes that since this compiler owns its own parser, the
// sentinel is recognized as an explicit pattern rather than a loose
// string comparison on an externally-parsed AST.
func isAKMIdent(expr ast.Expr) bool {
	id, ok := expr.(*ast.Identifier)
	return ok && id.Name == "AKM"
}

// akmMethodName returns (method, true) if expr is "AKM.method", i.e. a
// non-computed member access directly off the AKM sentinel.
func akmMethodName(expr ast.Expr) (string, bool) {
	m, ok := expr.(*ast.MemberExpr)
	if !ok {
		return "", false
	}
	if !isAKMIdent(m.Object) {
		return "", false
	}
	return m.Property, true
}
