package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSource = `
AKM.module({ name: "sample", author: "akmc" });

function init() {
  AKM.log("hello");
  return 0;
}

function exit() {
  return 0;
}

export { init, exit };
`

func TestRun_CompileAndInfo(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "sample.akm.js")
	if err := os.WriteFile(srcPath, []byte(minimalSource), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{"-O", srcPath}); code != 0 {
		t.Fatalf("compile run() = %d, want 0", code)
	}

	outPath := filepath.Join(dir, "sample.akm")
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected output artifact: %v", err)
	}

	if code := run([]string{"-i", outPath}); code != 0 {
		t.Fatalf("info run() = %d, want 0", code)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "sample.akm.js")
	if err := os.WriteFile(srcPath, []byte(minimalSource), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{"--dry-run", srcPath}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "sample.akm")); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact written, got err=%v", err)
	}
}

func TestRun_MissingInitIsFatal(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "bad.akm.js")
	src := `AKM.module({ name: "bad" });
function exit() { return 0; }
export { exit };
`
	if err := os.WriteFile(srcPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{srcPath}); code == 0 {
		t.Fatal("expected non-zero exit for module missing init()")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	cases := map[string]string{
		"foo.akm.js":          "foo.akm",
		"foo.js":              "foo.akm",
		"/a/b/foo.akm.js":     "/a/b/foo.akm",
		"nosuffix.something":  "nosuffix.something.akm",
	}
	for in, want := range cases {
		if got := defaultOutputPath(in); got != want {
			t.Errorf("defaultOutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCapsOverride(t *testing.T) {
	mask, ok := parseCapsOverride("0x1803")
	if !ok || mask != 0x1803 {
		t.Errorf("hex parse = %v, %v", mask, ok)
	}
	mask, ok = parseCapsOverride("LOG,FS_READ")
	if !ok {
		t.Fatal("name-list parse failed")
	}
	if !strings.Contains("LOG,FS_READ", "LOG") {
		t.Fatal("sanity")
	}

	if _, ok := parseCapsOverride("NOT_A_CAP"); ok {
		t.Error("expected failure for unknown capability name")
	}
}
