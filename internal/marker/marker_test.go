package marker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	if _, ok := s.Load(); ok {
		t.Fatal("fresh store should hold no marker")
	}

	want := Marker{PlanID: 42, User: "maria"}
	if err := s.Arm(want); err != nil {
		t.Fatalf("arm failed: %v", err)
	}

	got, ok := s.Load()
	if !ok {
		t.Fatal("marker missing after arm")
	}
	if got != want {
		t.Fatalf("loaded %+v, want %+v", got, want)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Fatal("marker survived clear")
	}

	// Clearing again is fine.
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing an absent marker errored: %v", err)
	}
}

func TestDiskStoreReArmReplacesResidue(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	if err := s.Arm(Marker{PlanID: 1, User: "maria"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Arm(Marker{PlanID: 2, User: "jorge"}); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Load()
	if !ok || got.PlanID != 2 || got.User != "jorge" {
		t.Fatalf("residue not replaced: %+v", got)
	}
}

func TestDiskStoreCorruptPayloadReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	if err := s.Arm(Marker{PlanID: 1, User: "maria"}); err != nil {
		t.Fatal(err)
	}

	// Corrupt the persisted bytes directly.
	path := filepath.Join(dir, "armed-execution")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Load(); ok {
		t.Fatal("corrupt marker should load as absent")
	}
}

func TestDiskStoreRejectsIncompleteMarker(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	if err := s.Arm(Marker{PlanID: 0, User: "maria"}); err == nil {
		t.Error("armed a marker without a plan id")
	}
	if err := s.Arm(Marker{PlanID: 3, User: ""}); err == nil {
		t.Error("armed a marker without a user")
	}
}

func TestDiskStoreValidPayloadWithoutUserReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)

	path := filepath.Join(dir, "armed-execution")
	if err := os.WriteFile(path, []byte(`{"id":5,"user":""}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load(); ok {
		t.Fatal("incomplete marker should load as absent")
	}
}
