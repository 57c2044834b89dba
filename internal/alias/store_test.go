package alias

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payee_mappings.csv")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpen_MissingFileIsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("Oreana Financial Services Limited", "OFS"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tests := []struct {
		name  string
		payee string
		want  string
	}{
		{"exact match", "Oreana Financial Services Limited", "OFS"},
		{"case-insensitive", "OREANA FINANCIAL SERVICES LIMITED", "OFS"},
		{"whitespace collapsed", "  Oreana   Financial Services  Limited ", "OFS"},
		{"no match falls back to input", "Acme Corp", "Acme Corp"},
		{"no match keeps original spacing", "  Acme   Corp ", "  Acme   Corp "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Resolve(tt.payee); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.payee, got, tt.want)
			}
		})
	}
}

func TestResolve_ShortFormIsFixedPoint(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("Oreana Financial Services Limited", "OFS"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Resolving an already-short payee must be a no-op unless the short form
	// itself is mapped.
	once := s.Resolve("Oreana Financial Services Limited")
	twice := s.Resolve(once)
	if twice != once {
		t.Errorf("re-resolving %q gave %q, want fixed point", once, twice)
	}
}

func TestAdd_DuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("Acme Corp", "ACME"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := s.Add("  ACME   corp ", "A2")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if got := s.Resolve("Acme Corp"); got != "ACME" {
		t.Errorf("Resolve after rejected insert = %q, want ACME", got)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("Acme Corp", "ACME"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add("Beta Ltd", "BETA"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Remove("acme corp"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got := s.Resolve("Acme Corp"); got != "Acme Corp" {
		t.Errorf("Resolve after remove = %q, want pass-through", got)
	}
	if got := s.Resolve("Beta Ltd"); got != "BETA" {
		t.Errorf("Resolve of surviving entry = %q, want BETA", got)
	}

	if err := s.Remove("Acme Corp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payee_mappings.csv")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Add("Oreana Financial Services Limited", "OFS"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add("Wealth Management Cube Limited", "WMC"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Reload into a fresh store and resolve against it.
	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reloaded.Resolve("oreana financial services limited"); got != "OFS" {
		t.Errorf("Resolve after reload = %q, want OFS", got)
	}
	if reloaded.Len() != 2 {
		t.Errorf("Len after reload = %d, want 2", reloaded.Len())
	}
}

func TestPersistedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payee_mappings.csv")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Add("Acme Corp", "ACME"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Full Name,Short Form" {
		t.Errorf("header = %q, want \"Full Name,Short Form\"", lines[0])
	}
	if len(lines) != 2 || lines[1] != "Acme Corp,ACME" {
		t.Errorf("rows = %q", lines[1:])
	}
}

func TestAdd_PersistFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payee_mappings.csv")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Make the directory unwritable so the temp-file create fails.
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	if err := s.Add("Acme Corp", "ACME"); err == nil {
		t.Fatal("expected persist error, got nil")
	}

	// The in-memory store remains the source of truth for the session.
	if got := s.Resolve("Acme Corp"); got != "ACME" {
		t.Errorf("Resolve after failed persist = %q, want ACME", got)
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("Acme Corp", "ACME"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entries := s.List()
	entries[0].ShortForm = "MUTATED"

	if got := s.Resolve("Acme Corp"); got != "ACME" {
		t.Errorf("Resolve = %q after mutating List() result, want ACME", got)
	}
}
