package run_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dispatcher/internal/config"
	"dispatcher/internal/logging"
	"dispatcher/internal/manifest"
	"dispatcher/internal/run"
	"dispatcher/internal/services"
)

const specJSON = `{
    "pipeline_processing": {
        "registration": {"channels": ["Ex_488_Em_525", "Ex_561_Em_600"]},
        "stitching": {
            "resolution": [
                {"axis_name": "X", "resolution": 1.8},
                {"axis_name": "Y", "resolution": 1.8},
                {"axis_name": "Z", "resolution": 2.0}
            ]
        },
        "segmentation": {"channels": ["Ex_561_Em_600"]}
    }
}`

const fragmentJSON = `{"processing_pipeline":{"data_processes":[{"name":"test-step"}],"processor_full_name":"","pipeline_version":"","pipeline_url":""}}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.ResultsDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.ResultsDir, "logs")
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(cfg.Paths.ResultsDir, "logs", "relocations.db")
	return &cfg
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func stageDispatchInputs(t *testing.T, dataDir string) {
	t.Helper()
	writeFile(t, filepath.Join(dataDir, manifest.SpecificationName), specJSON)
	writeFile(t, filepath.Join(dataDir, manifest.RawMetadataDir, manifest.DataDescriptionName),
		`{"name":"SmartSPIM_654321_2024-01-01_01-01-01","subject_id":"654321"}`)
	writeFile(t, filepath.Join(dataDir, manifest.RawMetadataDir, "subject.json"), `{"subject_id":"654321"}`)

	fusionDir := filepath.Join(dataDir, "fused", "fusion_Ex_488_Em_525")
	writeFile(t, filepath.Join(fusionDir, "OMEZarr", "Ex_488_Em_525.zarr", ".zattrs"), "{}")
	writeFile(t, filepath.Join(fusionDir, "metadata", "fusion_processing.json"), fragmentJSON)
	writeFile(t, filepath.Join(dataDir, "stitched", "stitch_2024-05-01", "metadata", "stitch_processing.json"), fragmentJSON)
	writeFile(t, filepath.Join(dataDir, "ccf_registration_results", "ccf_Ex_488_Em_525", "registration.nii"), "nii")
}

func TestDispatchEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	stageDispatchInputs(t, cfg.Paths.DataDir)
	outputRoot := t.TempDir()

	runner := run.New(cfg, logging.NewNop(), run.WithClock(fixedClock))
	err := runner.Execute(context.Background(), run.Options{
		Mode:       run.ModeDispatch,
		CloudMode:  false,
		OutputPath: outputRoot,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantName := "SmartSPIM_654321_2024-01-01_01-01-01_stitched_2024-05-06_07-08-09"
	datasetPath := filepath.Join(outputRoot, wantName)

	for _, rel := range []string{
		"data_description.json",
		"subject.json",
		"processing.json",
		"neuroglancer_config.json",
		filepath.Join("image_tile_fusing", "OMEZarr", "Ex_488_Em_525.zarr", ".zattrs"),
		filepath.Join("image_tile_fusing", "metadata", "fusion_Ex_488_Em_525", "fusion_processing.json"),
		filepath.Join("image_tile_fusing", "metadata", "stitch_2024-05-01", "stitch_processing.json"),
		filepath.Join("image_atlas_alignment", "Ex_488_Em_525", "registration.nii"),
	} {
		if _, err := os.Stat(filepath.Join(datasetPath, rel)); err != nil {
			t.Fatalf("missing dataset artifact %s: %v", rel, err)
		}
	}

	modified, err := manifest.LoadSpecification(filepath.Join(cfg.Paths.ResultsDir, manifest.ModifiedSpecificationName))
	if err != nil {
		t.Fatalf("load modified specification: %v", err)
	}
	if modified.Name != wantName {
		t.Fatalf("modified name = %q, want %q", modified.Name, wantName)
	}
	if modified.PipelineProcessing.Stitching.S3Path != datasetPath {
		t.Fatalf("stamped path = %q, want dataset root %q", modified.PipelineProcessing.Stitching.S3Path, datasetPath)
	}

	taskPath := filepath.Join(cfg.Paths.ResultsDir, manifest.TaskFileName("Ex_561_Em_600"))
	data, err := os.ReadFile(taskPath)
	if err != nil {
		t.Fatalf("missing channel task: %v", err)
	}
	var task manifest.ChannelTask
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("parse channel task: %v", err)
	}
	if task.Segmentation.BackgroundChannel != "Ex_488_Em_525" {
		t.Fatalf("background channel = %q", task.Segmentation.BackgroundChannel)
	}
	if task.Stitching.S3Path != datasetPath {
		t.Fatalf("task stitching path = %q, want dataset root %q", task.Stitching.S3Path, datasetPath)
	}

	state, err := os.ReadFile(filepath.Join(cfg.Paths.ResultsDir, "neuroglancer_config.json"))
	if err != nil {
		t.Fatalf("missing visualization state: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(state, &parsed); err != nil {
		t.Fatalf("parse visualization state: %v", err)
	}
	wantLink := cfg.Viewer.BaseURL + "#!" + datasetPath + "/neuroglancer_config.json"
	if parsed["ng_link"] != wantLink {
		t.Fatalf("ng_link = %v, want %q", parsed["ng_link"], wantLink)
	}

	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		t.Fatalf("journal not created: %v", err)
	}
}

func TestDispatchMissingInputsListsAll(t *testing.T) {
	cfg := testConfig(t)

	err := run.New(cfg, logging.NewNop()).Execute(context.Background(), run.Options{
		Mode:       run.ModeDispatch,
		OutputPath: t.TempDir(),
	})
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input marker, got %v", err)
	}
}

func TestCleanEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	dataDir := cfg.Paths.DataDir
	outputRoot := t.TempDir()
	datasetName := "SmartSPIM_654321_2024-01-01_01-01-01_stitched_2024-05-06_07-08-09"

	spec := &manifest.Specification{Name: datasetName}
	if err := json.Unmarshal([]byte(specJSON), spec); err != nil {
		t.Fatalf("seed specification: %v", err)
	}
	spec.Name = datasetName
	if err := spec.Save(filepath.Join(dataDir, manifest.ModifiedSpecificationName)); err != nil {
		t.Fatalf("save modified specification: %v", err)
	}
	writeFile(t, filepath.Join(dataDir, manifest.DerivedMetadataDir, manifest.DataDescriptionName),
		`{"name":"`+datasetName+`"}`)
	writeFile(t, filepath.Join(dataDir, manifest.DerivedMetadataDir, "processing.json"), fragmentJSON)
	writeFile(t, filepath.Join(dataDir, "cell_Ex_561_Em_600", "metadata", "cell_processing.json"), fragmentJSON)
	writeFile(t, filepath.Join(dataDir, "cell_Ex_561_Em_600", "cells.xml"), "<cells/>")
	writeFile(t, filepath.Join(dataDir, "quant_Ex_561_Em_600", "metadata", "quant_processing.json"), fragmentJSON)

	err := run.New(cfg, logging.NewNop()).Execute(context.Background(), run.Options{
		Mode:       run.ModeClean,
		OutputPath: outputRoot,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	datasetPath := filepath.Join(outputRoot, datasetName)
	for _, rel := range []string{
		"processing.json",
		filepath.Join("image_cell_segmentation", "Ex_561_Em_600", "cells.xml"),
		filepath.Join("image_cell_quantification", "Ex_561_Em_600", "metadata", "quant_processing.json"),
	} {
		if _, err := os.Stat(filepath.Join(datasetPath, rel)); err != nil {
			t.Fatalf("missing dataset artifact %s: %v", rel, err)
		}
	}

	document, err := os.ReadFile(filepath.Join(datasetPath, "processing.json"))
	if err != nil {
		t.Fatalf("read final provenance: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(document, &doc); err != nil {
		t.Fatalf("parse final provenance: %v", err)
	}
	pipeline, ok := doc["processing_pipeline"].(map[string]any)
	if !ok {
		t.Fatalf("processing_pipeline missing: %v", doc)
	}
	processes, ok := pipeline["data_processes"].([]any)
	if !ok || len(processes) != 3 {
		t.Fatalf("data_processes = %v", pipeline["data_processes"])
	}
	if pipeline["pipeline_version"] != cfg.Pipeline.Version {
		t.Fatalf("pipeline_version = %v", pipeline["pipeline_version"])
	}
}
