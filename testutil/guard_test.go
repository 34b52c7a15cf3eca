package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"inventorycore/internal/core", true},
		{"inventorycore/pkg/domain", false},
		{"github.com/shopspring/decimal", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPrefixAndAnyOf(t *testing.T) {
	pred := AnyOf(PrefixForbidden("github.com/labstack/"), AdapterImportForbidden)
	cases := []struct {
		in   string
		want bool
	}{
		{"github.com/labstack/echo/v4", true},
		{"inventorycore/internal/adapters/httpapi", true},
		{"inventorycore/internal/core", false},
		{"context", false},
	}
	for _, c := range cases {
		if got := pred(c.in); got != c.want {
			t.Fatalf("pred(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport (\n\"fmt\"\n\"inventorycore/internal/core\"\n)\nvar _ = fmt.Sprint\nvar _ core.Service\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\nimport \"inventorycore/internal/adapters\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "inventorycore/internal/core") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "layering", viols)
	if rec.msg == "" {
		t.Fatalf("expected failure to be reported")
	}
}

func TestDirectImportViolationsMissingDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
