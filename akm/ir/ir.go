// Package ir defines the compiler's intermediate representation: a flat,
// per-function instruction list over the fixed akm.Opcode set, a
// module-wide string table, and the lowering pass that builds both from
// extracted source functions.
package ir

import "github.com/chazu/akmc/akm"

// OperandKind tags which field of an Instruction's immediate is live.
type OperandKind int

const (
	OperandNone   OperandKind = iota
	OperandNumber             // Number holds the immediate
	OperandString             // Str holds raw string content, referenced by
	// content rather than position — the dedup pass in akm/optimize may
	// reorder the module's string table, but never invalidates this
	// reference, since nothing here stores a positional index.
)

// Instruction is one IR op, carrying whichever of the optional fields its
// opcode needs (spec §3 "IR instruction").
type Instruction struct {
	Op          akm.Opcode
	OperandKind OperandKind
	Number      float64
	Str         string
	Name        string // LOAD_LOCAL / STORE_LOCAL local name
	Label       string // JMP / JZ / JNZ target
	Func        string // CALL target function name
	Method      string // CALL_API method name
	Argc        int
}

// Push builds a PUSH of a numeric immediate.
func Push(n float64) Instruction {
	return Instruction{Op: akm.OpPush, OperandKind: OperandNumber, Number: n}
}

// PushString builds a PUSH carrying a string reference — used for `return`
// expressions and variable initializers that evaluate to a string, where
// the source §4.2 rule still calls for the generic PUSH opcode (PUSH_STR
// is reserved for API-call string arguments).
func PushString(s string) Instruction {
	return Instruction{Op: akm.OpPush, OperandKind: OperandString, Str: s}
}

// PushStr builds a PUSH_STR of a string-table entry.
func PushStr(s string) Instruction {
	return Instruction{Op: akm.OpPushStr, OperandKind: OperandString, Str: s}
}

// LoadLocal builds a LOAD_LOCAL referencing a local by name.
func LoadLocal(name string) Instruction {
	return Instruction{Op: akm.OpLoadLocal, Name: name}
}

// StoreLocal builds a STORE_LOCAL{name, value} pair: the source value is
// carried on the instruction itself (§4.2's "emit STORE_LOCAL{name=x,
// value=...}"); akm/codegen is responsible for lowering this single IR
// op into the "PUSH <value>; STORE_LOCAL <index>" byte sequence §4.5
// specifies.
func StoreLocal(name string, value Instruction) Instruction {
	value.Op = akm.OpStoreLocal
	value.Name = name
	return value
}

// CallAPI builds a CALL_API{method, argc}.
func CallAPI(method string, argc int) Instruction {
	return Instruction{Op: akm.OpCallAPI, Method: method, Argc: argc}
}

// Call builds a CALL{func, argc}.
func Call(name string, argc int) Instruction {
	return Instruction{Op: akm.OpCall, Func: name, Argc: argc}
}

// Ret builds a bare RET.
func Ret() Instruction { return Instruction{Op: akm.OpRet} }

// Pop builds a bare POP.
func Pop() Instruction { return Instruction{Op: akm.OpPop} }

// Function is one IR function (spec §3 "IR function"). Locals is
// insertion order; a name added twice is intentionally not deduplicated —
// see LocalIndex.
type Function struct {
	Name         string
	Params       []string
	Locals       []string
	Instructions []Instruction
	IsInit       bool
	IsExit       bool
}

// AddLocal appends name to the local list unconditionally (even if it
// already appears) and returns its index. Spec §3 documents this as a
// known source-level behavior: re-declaring a name shadows the earlier
// slot for any reference added after this call, since LocalIndex always
// resolves to the most recent occurrence.
func (f *Function) AddLocal(name string) int {
	f.Locals = append(f.Locals, name)
	return len(f.Locals) - 1
}

// LocalIndex returns the index of the most recently added local with the
// given name, or -1 if none exists.
func (f *Function) LocalIndex(name string) int {
	for i := len(f.Locals) - 1; i >= 0; i-- {
		if f.Locals[i] == name {
			return i
		}
	}
	return -1
}

// Emit appends an instruction.
func (f *Function) Emit(ins Instruction) {
	f.Instructions = append(f.Instructions, ins)
}

// EnsureTerminator appends RET unless the last instruction is already
// RET, satisfying the §4.2 "terminator invariant".
func (f *Function) EnsureTerminator() {
	n := len(f.Instructions)
	if n == 0 || f.Instructions[n-1].Op != akm.OpRet {
		f.Emit(Ret())
	}
}

// Module is the whole-program IR: every extracted function plus the
// module-wide deduplicated string table (spec §3 "String table" is
// module-scoped, not per-function — the optimizer's dedup pass rewrites
// it in place across all functions at once).
type Module struct {
	Functions      []*Function
	FunctionByName map[string]*Function
	Strings        *StringTable
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{FunctionByName: map[string]*Function{}, Strings: NewStringTable()}
}

// AddFunction registers fn, indexing it by name.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
	m.FunctionByName[fn.Name] = fn
}

// StringTable is an ordered, deduplicated list of UTF-8 strings. Per
// spec §9's "String dedup & references" note, IR instructions reference
// strings by content (Instruction.Str), never by position, so rebuilding
// this table never invalidates an existing reference.
type StringTable struct {
	order []string
	seen  map[string]bool
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{seen: map[string]bool{}}
}

// Intern records s in the table if it hasn't been seen before.
func (t *StringTable) Intern(s string) {
	if t.seen[s] {
		return
	}
	t.seen[s] = true
	t.order = append(t.order, s)
}

// Values returns the table's strings in first-occurrence order.
func (t *StringTable) Values() []string {
	return t.order
}

// Rebuild replaces the table's contents with a fresh scan over fns,
// preserving first-occurrence order. This is the §4.4 "string-table
// deduplication" pass: since references are by content, rebuilding is
// safe even though it may change a string's position.
func (t *StringTable) Rebuild(fns []*Function) {
	fresh := NewStringTable()
	for _, fn := range fns {
		for _, ins := range fn.Instructions {
			if ins.OperandKind == OperandString {
				fresh.Intern(ins.Str)
			}
		}
	}
	t.order = fresh.order
	t.seen = fresh.seen
}
