package compile

import (
	"testing"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/inspect"
)

const minimalModule = `
AKM.module({ name: "sample", version: "1.0.0", author: "akmc" });

function init() {
  AKM.log("starting");
  return 0;
}

function exit() {
  return 0;
}

export { init, exit };
`

func TestCompileMinimalModule(t *testing.T) {
	res, err := Compile("minimal.akm.js", minimalModule, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	insp, err := inspect.Inspect(res.Artifact)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if insp.Header.Name != "sample" {
		t.Errorf("name = %q, want sample", insp.Header.Name)
	}
	mask := akm.Capability(insp.Header.Capabilities)
	if mask != akm.CapLog {
		t.Errorf("capabilities = %s, want LOG only", akm.String(mask))
	}
}

func TestCompileCommandInjection(t *testing.T) {
	src := `
AKM.module({ name: "shelltool", capabilities: AKM.CAPS.FS_READ });

function init() {
  AKM.command({ name: "hi", syntax: "hi", description: "say hi", category: "fun" }, handle);
  return 0;
}

function handle() { return 0; }
function exit() { return 0; }

export { init, exit };
`
	res, err := Compile("cmd.akm.js", src, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	insp, err := inspect.Inspect(res.Artifact)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	mask := akm.Capability(insp.Header.Capabilities)
	if mask&akm.CapCommand == 0 || mask&akm.CapFSRead == 0 || mask&akm.CapLog == 0 {
		t.Errorf("capabilities = %s, want COMMAND|FS_READ|LOG", akm.String(mask))
	}
	if insp.Header.DataSize == 0 {
		t.Error("expected non-empty data section for the command stub")
	}
}

func TestCompileOptimizedArtifactShrinksWithDeadCode(t *testing.T) {
	src := `
AKM.module({ name: "dce2" });
function init() {
  return 0;
  AKM.info("unreachable");
}
function exit() { return 0; }
export { init, exit };
`
	unopt, err := Compile("dce2.akm.js", src, Options{Optimize: false})
	if err != nil {
		t.Fatalf("Compile (unoptimized): %v", err)
	}
	opt, err := Compile("dce2.akm.js", src, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile (optimized): %v", err)
	}
	if len(opt.Artifact) >= len(unopt.Artifact) {
		t.Errorf("expected optimized artifact to be smaller: opt=%d unopt=%d", len(opt.Artifact), len(unopt.Artifact))
	}
}

func TestCompileConstantFoldsArithmeticReturn(t *testing.T) {
	src := `
AKM.module({ name: "fold" });
function init() {
  return 2 + 3;
}
function exit() { return 0; }
export { init, exit };
`
	res, err := Compile("fold.akm.js", src, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	init := res.Module.FunctionByName["init"]
	if len(init.Instructions) != 2 {
		t.Fatalf("expected PUSH 5; RET after folding, got %d instructions: %+v", len(init.Instructions), init.Instructions)
	}
	if init.Instructions[0].Op != akm.OpPush || init.Instructions[0].Number != 5 {
		t.Errorf("instruction[0] = %+v, want PUSH 5", init.Instructions[0])
	}
	if init.Instructions[1].Op != akm.OpRet {
		t.Errorf("instruction[1] = %+v, want RET", init.Instructions[1])
	}
}

func TestCompileDeadCodeEliminationDropsUnreachableCall(t *testing.T) {
	src := `
AKM.module({ name: "dce" });
function init() {
  return 0;
  AKM.info("b");
}
function exit() { return 0; }
export { init, exit };
`
	res, err := Compile("dce.akm.js", src, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	init := res.Module.FunctionByName["init"]
	for _, ins := range init.Instructions {
		if ins.Op == akm.OpCallAPI && ins.Method == "info" {
			t.Error("expected unreachable AKM.info(\"b\") call eliminated")
		}
	}
}

func TestCompileChecksumStability(t *testing.T) {
	a1, err := Compile("stable.akm.js", minimalModule, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	a2, err := Compile("stable.akm.js", minimalModule, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(a1.Artifact) != len(a2.Artifact) {
		t.Fatalf("artifact lengths differ: %d vs %d", len(a1.Artifact), len(a2.Artifact))
	}
	for i := range a1.Artifact {
		if a1.Artifact[i] != a2.Artifact[i] {
			t.Fatalf("artifacts differ at byte %d", i)
		}
	}
}

func TestCompileInspectorRejectsCorruptMagic(t *testing.T) {
	res, err := Compile("corrupt.akm.js", minimalModule, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	corrupt := append([]byte{}, res.Artifact...)
	corrupt[0] ^= 0xFF
	if _, err := Inspect(corrupt); err == nil {
		t.Fatal("expected Inspect to reject corrupt magic")
	}
}

func TestCompileMissingInitIsStructuralError(t *testing.T) {
	src := `
AKM.module({ name: "bad" });
function exit() { return 0; }
export { exit };
`
	if _, err := Compile("bad.akm.js", src, Options{}); err == nil {
		t.Fatal("expected structural error for missing init")
	}
}

func TestCompileCapsOverrideWins(t *testing.T) {
	override := uint32(akm.CapDebug)
	res, err := Compile("override.akm.js", minimalModule, Options{CapsOverride: &override})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	insp, err := inspect.Inspect(res.Artifact)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if insp.Header.Capabilities != override {
		t.Errorf("capabilities = 0x%08X, want override 0x%08X", insp.Header.Capabilities, override)
	}
}
