package frontend

import (
	"fmt"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/ast"
)

// Function is one extracted function definition: a named declaration, a
// named export, or a single-name variable binding initialized with an
// anonymous function/arrow expression (spec §4.1 "Function extraction").
type Function struct {
	Name   string
	Params []string
	Body   *ast.BlockStmt
}

// Command is one AKM.command(...) registration (spec §4.1 "Command
// extraction"). Handler is empty when the second argument wasn't a bare
// Identifier naming an extracted function; a warning is recorded in that
// case by Extract.
type Command struct {
	Name        string
	Syntax      string
	Description string
	Category    string
	Handler     string
}

// APICall is one AKM.<method>(...) call site other than module/command
// (spec §4.1 "API-call extraction").
type APICall struct {
	Method    string
	Arguments []ast.Expr
	Line      int
	Column    int
}

// Result bundles the four extraction projections plus diagnostics.
type Result struct {
	Module    akm.ModuleDescriptor
	Functions map[string]Function
	// FunctionOrder preserves first-occurrence order for deterministic
	// downstream iteration (symbol table, IR function list).
	FunctionOrder []string
	Commands      []Command
	APICalls      []APICall
	Errors        []string
	Warnings      []string
}

// Extract walks prog and produces a Result. filename is used only to
// prefix structural diagnostics.
func Extract(filename string, prog *ast.Program, capLookup func(string) (akm.Capability, bool)) *Result {
	r := &Result{
		Module:    akm.NewModuleDescriptor(),
		Functions: map[string]Function{},
	}
	lookup := func(name string) (uint32, bool) {
		bit, ok := capLookup(name)
		return uint32(bit), ok
	}

	var moduleCallFound bool
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Program:
			for _, s := range node.Body {
				walk(s)
			}
		case *ast.ExportNamedDecl:
			if node.Declaration != nil {
				walk(node.Declaration)
			}
			// Bare "export { a, b };" specifier forms are not recorded:
			// the compile stage checks init/exit presence against the
			// extracted functions, not against the export list.
		case *ast.FunctionDecl:
			r.addFunction(node.Name, node.Params, node.Body)
			walk(node.Body)
		case *ast.VarDecl:
			for _, d := range node.Declarators {
				if d.Init != nil {
					if fn, ok := d.Init.(*ast.FunctionExpr); ok {
						r.addFunction(d.Name, fn.Params, fn.Body)
						walk(fn.Body)
						continue
					}
					walk(d.Init)
				}
			}
		case *ast.BlockStmt:
			for _, s := range node.Body {
				walk(s)
			}
		case *ast.ExprStmt:
			walk(node.Expr)
		case *ast.ReturnStmt:
			if node.Argument != nil {
				walk(node.Argument)
			}
		case *ast.OtherStmt:
			for _, c := range node.Children {
				walk(c)
			}
		case *ast.CallExpr:
			if r.handleCall(node, lookup, &moduleCallFound) {
				return
			}
			walk(node.Callee)
			for _, a := range node.Arguments {
				walk(a)
			}
		case *ast.FunctionExpr:
			walk(node.Body)
		case *ast.BinaryExpr:
			walk(node.Left)
			walk(node.Right)
		case *ast.UnaryExpr:
			walk(node.Operand)
		case *ast.MemberExpr:
			walk(node.Object)
		case *ast.ArrayLiteral:
			for _, e := range node.Elements {
				walk(e)
			}
		case *ast.ObjectLiteral:
			for _, p := range node.Properties {
				walk(p.Value)
			}
		}
	}
	walk(prog)

	for i := range r.Commands {
		h := r.Commands[i].Handler
		if h == "" {
			continue
		}
		if _, ok := r.Functions[h]; !ok {
			r.Warnings = append(r.Warnings, fmt.Sprintf("command %q: handler %q is not an extracted function", r.Commands[i].Name, h))
			r.Commands[i].Handler = ""
		}
	}

	if !moduleCallFound {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: missing required AKM.module({...}) call", filename))
	}
	return r
}

func (r *Result) addFunction(name string, params []string, body *ast.BlockStmt) {
	if name == "" {
		return
	}
	if _, exists := r.Functions[name]; !exists {
		r.FunctionOrder = append(r.FunctionOrder, name)
	}
	r.Functions[name] = Function{Name: name, Params: params, Body: body}
}

// handleCall recognizes AKM.module, AKM.command, and AKM.<method>(...)
// call forms. It returns true if call was one of these recognized forms
// (so the caller should not also walk it generically as an arbitrary
// expression — its arguments are handled by the recognized-form logic
// instead, to avoid double-recording nested AKM calls as API sites).
func (r *Result) handleCall(call *ast.CallExpr, lookup capabilityLookup, moduleCallFound *bool) bool {
	method, ok := akmMethodName(call.Callee)
	if !ok {
		return false
	}
	switch method {
	case "module":
		*moduleCallFound = true
		if len(call.Arguments) != 1 {
			r.Errors = append(r.Errors, "AKM.module(...) requires exactly one object-literal argument")
			return true
		}
		obj, ok := call.Arguments[0].(*ast.ObjectLiteral)
		if !ok {
			r.Errors = append(r.Errors, "AKM.module(...) argument must be an object literal")
			return true
		}
		r.extractModule(obj, lookup)
		return true
	case "command":
		if len(call.Arguments) != 2 {
			r.Warnings = append(r.Warnings, "AKM.command(...) expects (object, handler); ignoring malformed call")
			return true
		}
		obj, ok := call.Arguments[0].(*ast.ObjectLiteral)
		if !ok {
			r.Warnings = append(r.Warnings, "AKM.command(...) first argument must be an object literal; ignoring")
			return true
		}
		r.extractCommand(obj, call.Arguments[1])
		return true
	default:
		pos := call.Span().Start
		r.APICalls = append(r.APICalls, APICall{
			Method:    method,
			Arguments: call.Arguments,
			Line:      pos.Line,
			Column:    pos.Column,
		})
		return true
	}
}

func (r *Result) extractModule(obj *ast.ObjectLiteral, lookup capabilityLookup) {
	val := EvalConst(obj, lookup)
	fields := val.Object

	r.Module.Name = stringField(fields, "name", "")
	r.Module.Version = stringField(fields, "version", akm.DefaultVersion)
	r.Module.Author = stringField(fields, "author", "")
	r.Module.Description = stringField(fields, "description", "")
	r.Module.License = stringField(fields, "license", "")

	if capsVal, ok := objectField(fields, "capabilities"); ok {
		switch capsVal.Kind {
		case KindNumber:
			r.Module.Capabilities = uint32(int64(capsVal.Number))
		case KindRef:
			r.Warnings = append(r.Warnings, "module.capabilities did not resolve to a numeric value: "+capsVal.Ref)
		}
	}

	if depsVal, ok := objectField(fields, "dependencies"); ok && depsVal.Kind == KindArray {
		for _, dv := range depsVal.Array {
			if s, ok := asString(dv); ok {
				r.Module.Dependencies = append(r.Module.Dependencies, s)
			}
		}
	}

	if secVal, ok := objectField(fields, "security_level"); ok && secVal.Kind == KindNumber {
		r.Module.SecurityLevel = uint8(secVal.Number)
	}

	if r.Module.Name == "" {
		r.Errors = append(r.Errors, "module name must be non-empty")
	}
}

func (r *Result) extractCommand(obj *ast.ObjectLiteral, handlerExpr ast.Expr) {
	val := EvalConst(obj, nil)
	fields := val.Object

	cmd := Command{
		Name:        stringField(fields, "name", ""),
		Syntax:      stringField(fields, "syntax", ""),
		Description: stringField(fields, "description", ""),
		Category:    stringField(fields, "category", ""),
	}

	if id, ok := handlerExpr.(*ast.Identifier); ok {
		cmd.Handler = id.Name
	} else {
		r.Warnings = append(r.Warnings, fmt.Sprintf("command %q: handler is not a bare identifier", cmd.Name))
	}

	r.Commands = append(r.Commands, cmd)
}
