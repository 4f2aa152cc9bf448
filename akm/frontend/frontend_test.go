package frontend

import (
	"testing"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/ast"
	"github.com/chazu/akmc/akm/parser"
)

func extractSrc(t *testing.T, src string) *Result {
	t.Helper()
	p := parser.New("t.js", src)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	return Extract("t.js", prog, akm.CapabilityByName)
}

func TestExtractModule(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "widget", version: "2.1.0", author: "me", security_level: 1 });
function init() { return 0; }
function exit() { return 0; }
`)
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if r.Module.Name != "widget" || r.Module.Version != "2.1.0" || r.Module.Author != "me" {
		t.Errorf("module = %+v", r.Module)
	}
	if r.Module.SecurityLevel != 1 {
		t.Errorf("security level = %d, want 1", r.Module.SecurityLevel)
	}
}

func TestExtractMissingModuleCallIsError(t *testing.T) {
	r := extractSrc(t, `function init() { return 0; }`)
	if len(r.Errors) == 0 {
		t.Fatal("expected missing AKM.module(...) error")
	}
}

func TestExtractFunctionsIncludingArrowBinding(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "x" });
function init() { return 0; }
const handle = (req) => { return 1; };
`)
	if _, ok := r.Functions["init"]; !ok {
		t.Error("expected init to be extracted")
	}
	fn, ok := r.Functions["handle"]
	if !ok {
		t.Fatal("expected handle to be extracted from arrow-binding var decl")
	}
	if len(fn.Params) != 1 || fn.Params[0] != "req" {
		t.Errorf("handle params = %v", fn.Params)
	}
}

func TestExtractCommandWithBareIdentHandler(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "x" });
function init() {
  AKM.command({ name: "hi", syntax: "hi", description: "say hi", category: "fun" }, handle);
  return 0;
}
function handle() { return 0; }
function exit() { return 0; }
`)
	if len(r.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(r.Commands))
	}
	cmd := r.Commands[0]
	if cmd.Name != "hi" || cmd.Handler != "handle" || cmd.Category != "fun" {
		t.Errorf("command = %+v", cmd)
	}
}

func TestExtractCommandWithNonIdentHandlerWarns(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "x" });
function init() {
  AKM.command({ name: "hi", syntax: "hi" }, function() { return 0; });
  return 0;
}
`)
	if len(r.Commands) != 1 {
		t.Fatalf("expected command still recorded, got %d", len(r.Commands))
	}
	if r.Commands[0].Handler != "" {
		t.Errorf("expected empty handler, got %q", r.Commands[0].Handler)
	}
	if len(r.Warnings) == 0 {
		t.Error("expected a warning about non-identifier handler")
	}
}

func TestExtractAPICalls(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "x" });
function init() {
  AKM.log("starting");
  AKM.fsRead("/etc/passwd");
  return 0;
}
`)
	if len(r.APICalls) != 2 {
		t.Fatalf("expected 2 API calls, got %d: %+v", len(r.APICalls), r.APICalls)
	}
	if r.APICalls[0].Method != "log" || r.APICalls[1].Method != "fsRead" {
		t.Errorf("methods = %v", []string{r.APICalls[0].Method, r.APICalls[1].Method})
	}
}

func TestEvalConstCapabilityOrChain(t *testing.T) {
	r := extractSrc(t, `
AKM.module({ name: "x", capabilities: AKM.CAPS.LOG | AKM.CAPS.FS_READ });
function init() { return 0; }
`)
	want := uint32(akm.CapLog | akm.CapFSRead)
	if r.Module.Capabilities != want {
		t.Errorf("capabilities = 0x%X, want 0x%X", r.Module.Capabilities, want)
	}
}

func TestEvalConstTemplateWithSubstitutionIsRef(t *testing.T) {
	r := extractSrc(t, "AKM.module({ name: `hi ${oops}` });\nfunction init(){return 0;}")
	if r.Module.Name != "" {
		t.Errorf("expected unresolved name to stay empty, got %q", r.Module.Name)
	}
}

func TestEvalConstNegation(t *testing.T) {
	p := parser.New("t.js", `-5;`)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	stmt, ok := prog.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected *ast.ExprStmt, got %T", prog.Body[0])
	}
	v := EvalConst(stmt.Expr, func(name string) (uint32, bool) {
		bit, ok := akm.CapabilityByName(name)
		return uint32(bit), ok
	})
	if v.Kind != KindNumber || v.Number != -5 {
		t.Errorf("EvalConst(-5) = %+v, want Number(-5)", v)
	}
}

func TestEvalConstArrayLiteralDependencies(t *testing.T) {
	r := extractSrc(t, `AKM.module({ name: "x", dependencies: ["a", "b"] });
function init(){return 0;}`)
	if len(r.Module.Dependencies) != 2 || r.Module.Dependencies[0] != "a" || r.Module.Dependencies[1] != "b" {
		t.Errorf("dependencies = %v", r.Module.Dependencies)
	}
}
