package provenance_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dispatcher/internal/provenance"
	"dispatcher/internal/services"
)

func writeFragment(t *testing.T, path string, processNames ...string) {
	t.Helper()
	processes := make([]map[string]string, 0, len(processNames))
	for _, name := range processNames {
		processes = append(processes, map[string]string{"name": name})
	}
	doc := map[string]any{
		"processing_pipeline": map[string]any{
			"data_processes":      processes,
			"processor_full_name": "upstream",
			"pipeline_version":    "2.0.2",
			"pipeline_url":        "https://example.com",
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fragment: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
}

func readMerged(t *testing.T, destDir string) provenance.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(destDir, provenance.DocumentName))
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	var doc provenance.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse merged: %v", err)
	}
	return doc
}

func testCompiler() provenance.Compiler {
	return provenance.Compiler{
		Processor:     "Test Processor",
		Version:       "2.0.2",
		RepositoryURL: "https://github.com/AllenNeuralDynamics/aind-smartspim-pipeline",
	}
}

func TestCompilePreservesFragmentAndEntryOrder(t *testing.T) {
	dir := t.TempDir()
	fragA := filepath.Join(dir, "a_processing.json")
	fragB := filepath.Join(dir, "b_processing.json")
	writeFragment(t, fragA, "destripe", "flatfield")
	writeFragment(t, fragB, "stitch")

	dest := filepath.Join(dir, "out")
	got, err := testCompiler().Compile([]string{fragA, fragB}, dest)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got != dest {
		t.Fatalf("Compile returned %q, want destination dir %q", got, dest)
	}

	doc := readMerged(t, dest)
	if len(doc.ProcessingPipeline.DataProcesses) != 3 {
		t.Fatalf("processes = %d, want 3", len(doc.ProcessingPipeline.DataProcesses))
	}
	wantOrder := []string{"destripe", "flatfield", "stitch"}
	for i, raw := range doc.ProcessingPipeline.DataProcesses {
		var entry map[string]string
		if err := json.Unmarshal(raw, &entry); err != nil {
			t.Fatalf("parse entry %d: %v", i, err)
		}
		if entry["name"] != wantOrder[i] {
			t.Fatalf("entry %d = %q, want %q", i, entry["name"], wantOrder[i])
		}
	}
	if doc.ProcessingPipeline.ProcessorFullName != "Test Processor" {
		t.Fatalf("processor = %q", doc.ProcessingPipeline.ProcessorFullName)
	}
	if doc.Notes == "" {
		t.Fatal("expected explanatory note on merged document")
	}
}

func TestCompileZeroFragments(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	if _, err := testCompiler().Compile(nil, dest); err != nil {
		t.Fatalf("Compile with zero fragments: %v", err)
	}
	doc := readMerged(t, dest)
	if len(doc.ProcessingPipeline.DataProcesses) != 0 {
		t.Fatalf("processes = %d, want 0", len(doc.ProcessingPipeline.DataProcesses))
	}
}

func TestCompileMalformedFragmentWritesNothing(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad_processing.json")
	if err := os.WriteFile(bad, []byte(`{"not": "a fragment"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dest := filepath.Join(dir, "out")
	_, err := testCompiler().Compile([]string{bad}, dest)
	if err == nil {
		t.Fatal("expected merge error for malformed fragment")
	}
	if !errors.Is(err, services.ErrProvenance) {
		t.Fatalf("expected provenance marker, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, provenance.DocumentName)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("merged document should not exist, stat err=%v", statErr)
	}
}

func TestCompileMissingFragmentIsFatal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	_, err := testCompiler().Compile([]string{"/nowhere/processing.json"}, dest)
	if !errors.Is(err, services.ErrProvenance) {
		t.Fatalf("expected provenance marker, got %v", err)
	}
}

func TestFragmentsExcludeManifests(t *testing.T) {
	stage := filepath.Join(t.TempDir(), "stitch_Ex_488_Em_525")
	writeFragment(t, filepath.Join(stage, "metadata", "stitch_processing.json"), "stitch")
	writeFragment(t, filepath.Join(stage, "metadata", "processing_manifest.json"), "ignored")
	if err := os.WriteFile(filepath.Join(stage, "metadata", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fragments, err := provenance.Fragments(stage)
	if err != nil {
		t.Fatalf("Fragments: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("fragments = %v, want only the stitch processing json", fragments)
	}
	if filepath.Base(fragments[0]) != "stitch_processing.json" {
		t.Fatalf("fragment = %q", fragments[0])
	}
}

func TestCollectFragmentsPreservesStageOrder(t *testing.T) {
	root := t.TempDir()
	stageA := filepath.Join(root, "fused", "fusion_Ex_488_Em_525")
	stageB := filepath.Join(root, "stitched", "stitch_Ex_488_Em_525")
	writeFragment(t, filepath.Join(stageA, "metadata", "fusion_processing.json"), "fuse")
	writeFragment(t, filepath.Join(stageB, "metadata", "stitch_processing.json"), "stitch")

	fragments, err := provenance.CollectFragments([]string{stageB, stageA})
	if err != nil {
		t.Fatalf("CollectFragments: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("fragments = %v", fragments)
	}
	if filepath.Base(fragments[0]) != "stitch_processing.json" {
		t.Fatalf("stage order not preserved: %v", fragments)
	}
}
