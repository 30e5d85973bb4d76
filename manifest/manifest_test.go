package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harborpm/spm/reference"
)

func TestLoad_ParsesDependencies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fileName)
	content := `{"name":"demo","version":"1.0.0","dependencies":{"a":"1.0.0","b":"^2.0.0"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	doc, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	descs := Descriptors(doc.TypedData)
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	byName := map[string]reference.Reference{}
	for _, d := range descs {
		byName[d.Name] = d.Reference
	}
	if byName["a"].Kind != reference.KindExact {
		t.Errorf("expected a to be exact, got %v", byName["a"])
	}
	if byName["b"].Kind != reference.KindRange {
		t.Errorf("expected b to be a range, got %v", byName["b"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
