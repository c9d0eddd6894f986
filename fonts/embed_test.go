package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:gomono", "built-in:GoMono", "embed:gomono"} {
		data, err := Load(src, "")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", src, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s: empty font data", src)
		}
	}
	if _, err := Load("builtin:missing", ""); err == nil {
		t.Fatalf("expected error for unknown builtin font")
	}
}

func TestLoadFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	want := []byte("not really a font")
	if err := os.WriteFile(filepath.Join(dir, "x.ttf"), want, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load("x.ttf", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("font bytes mismatch")
	}
	if _, err := Load("", dir); err == nil {
		t.Fatalf("expected error for empty src")
	}
}

func TestBuiltinNamesSorted(t *testing.T) {
	names := Builtin()
	if len(names) != 4 || names[0] != "gobold" {
		t.Fatalf("unexpected builtin names: %v", names)
	}
	if !IsBuiltin("builtin:gomono") || IsBuiltin("fonts/a.ttf") {
		t.Fatalf("IsBuiltin misclassified")
	}
}
