package provenance

import (
	"encoding/json"
	"os"
	"path/filepath"

	"dispatcher/internal/services"
)

// DocumentName is the filename of a processing document.
const DocumentName = "processing.json"

// mergeNote explains how the compiled document came to be.
const mergeNote = "This processing was generated by compiling independent processing jsons for every step"

// PipelineProcess carries the ordered process entries of a pipeline run plus
// the identity of the pipeline that produced them.
type PipelineProcess struct {
	DataProcesses     []json.RawMessage `json:"data_processes"`
	ProcessorFullName string            `json:"processor_full_name"`
	PipelineVersion   string            `json:"pipeline_version"`
	PipelineURL       string            `json:"pipeline_url"`
}

// Document is a top-level processing document: one per stage output when
// acting as a fragment, one per dataset once compiled.
type Document struct {
	ProcessingPipeline PipelineProcess `json:"processing_pipeline"`
	Notes              string          `json:"notes,omitempty"`
}

// Compiler merges provenance fragments into canonical processing documents.
type Compiler struct {
	Processor     string
	Version       string
	RepositoryURL string
}

// Compile reads every fragment path in the given order, validates it, and
// appends its process entries to one accumulating sequence — fragment order
// and within-fragment order both preserved, never reordered after the merge.
// The merged document is written to destDir as processing.json and destDir is
// returned. Zero fragments produce a valid document with zero processes.
func (c Compiler) Compile(fragmentPaths []string, destDir string) (string, error) {
	processes := make([]json.RawMessage, 0, len(fragmentPaths))
	for _, path := range fragmentPaths {
		fragment, err := readFragment(path)
		if err != nil {
			return "", err
		}
		processes = append(processes, fragment.ProcessingPipeline.DataProcesses...)
	}

	merged := Document{
		ProcessingPipeline: PipelineProcess{
			DataProcesses:     processes,
			ProcessorFullName: c.Processor,
			PipelineVersion:   c.Version,
			PipelineURL:       c.RepositoryURL,
		},
		Notes: mergeNote,
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrProvenance, "provenance", "encode merged document", destDir, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrProvenance, "provenance", "create destination", destDir, err)
	}
	if err := os.WriteFile(filepath.Join(destDir, DocumentName), append(data, '\n'), 0o644); err != nil {
		return "", services.Wrap(services.ErrProvenance, "provenance", "write merged document", destDir, err)
	}
	return destDir, nil
}

func readFragment(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrProvenance, "provenance", "read fragment", path, err)
	}
	var fragment Document
	if err := json.Unmarshal(data, &fragment); err != nil {
		return nil, services.Wrap(services.ErrProvenance, "provenance", "parse fragment", path, err)
	}
	if fragment.ProcessingPipeline.DataProcesses == nil {
		return nil, services.Wrap(services.ErrProvenance, "provenance", "validate fragment", path+": no data_processes", nil)
	}
	return &fragment, nil
}
