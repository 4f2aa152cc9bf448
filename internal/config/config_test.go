package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[output]
dir = "dist"

[build]
profile = "net-tools"
security-level = 2
optimize = true

[profiles.net-tools]
capabilities = ["NETWORK", "LOG"]
`
	if err := os.WriteFile(filepath.Join(dir, "akmc.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Build.Profile != "net-tools" {
		t.Errorf("build.profile = %q, want net-tools", c.Build.Profile)
	}
	if c.Build.SecurityLevel != 2 {
		t.Errorf("build.security-level = %d, want 2", c.Build.SecurityLevel)
	}
	if !c.Build.Optimize {
		t.Error("build.optimize = false, want true")
	}
	caps, ok := c.ResolveProfile("net-tools")
	if !ok || len(caps) != 2 {
		t.Fatalf("ResolveProfile(net-tools) = %v, %v", caps, ok)
	}
	if got, want := c.OutputDir(), filepath.Join(c.Dir, "dist"); got != want {
		t.Errorf("OutputDir() = %q, want %q", got, want)
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "akmc.toml"), []byte("[build]\nprofile = \"default\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if c.Build.Profile != "default" {
		t.Errorf("build.profile = %q, want default", c.Build.Profile)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if c != nil {
		t.Error("expected nil config when no akmc.toml exists")
	}
}
