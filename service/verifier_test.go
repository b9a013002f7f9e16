package service

import (
	"os"
	"path/filepath"
	"testing"
)

func generateSmallCorpus(t *testing.T) string {
	t.Helper()
	cfg, srcDir, outDir := corpusConfig(t)
	writeSourceImages(t, srcDir, 3, 640, 480)

	if _, err := NewTamperService(cfg).Generate(&GenerateRequest{Count: 3}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return outDir
}

func TestVerifyCleanCorpus(t *testing.T) {
	outDir := generateSmallCorpus(t)

	report, err := NewCorpusVerifier().Verify(outDir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean corpus, got problems: %v", report.Problems)
	}
	if report.Records != 3 || report.Valid != 3 {
		t.Errorf("records=%d valid=%d, want 3/3", report.Records, report.Valid)
	}
}

func TestVerifyDetectsCorruptedOutput(t *testing.T) {
	outDir := generateSmallCorpus(t)

	if err := os.WriteFile(filepath.Join(outDir, "tampered_1.jpg"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	report, err := NewCorpusVerifier().Verify(outDir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.OK() {
		t.Fatal("corrupted output not detected")
	}
	if report.Valid != 2 || len(report.Problems) != 1 {
		t.Errorf("valid=%d problems=%d, want 2/1", report.Valid, len(report.Problems))
	}
}

func TestVerifyDetectsMissingOutput(t *testing.T) {
	outDir := generateSmallCorpus(t)

	if err := os.Remove(filepath.Join(outDir, "tampered_0.jpg")); err != nil {
		t.Fatal(err)
	}

	report, err := NewCorpusVerifier().Verify(outDir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.OK() {
		t.Fatal("missing output not detected")
	}
}

func TestVerifyWithoutManifest(t *testing.T) {
	if _, err := NewCorpusVerifier().Verify(t.TempDir()); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
