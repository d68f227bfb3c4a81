package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dispatcher/internal/services"
)

// SpecificationName is the specification filename dispatch mode consumes.
const SpecificationName = "processing_manifest.json"

// ModifiedSpecificationName is the specification filename dispatch mode
// writes and clean mode consumes.
const ModifiedSpecificationName = "modified_processing_manifest.json"

// AxisResolution describes the voxel resolution of one acquisition axis.
type AxisResolution struct {
	AxisName   string  `json:"axis_name"`
	Resolution float64 `json:"resolution"`
}

// Registration holds the registration stage parameters. The first channel is
// the background-channel reference used during fan-out.
type Registration struct {
	Channels []string `json:"channels"`
}

// Stitching holds the stitching stage parameters, including the acquisition
// resolution triple and the durable-storage path stamped in at dispatch time.
type Stitching struct {
	Resolution []AxisResolution `json:"resolution"`
	S3Path     string           `json:"s3_path,omitempty"`
}

// Segmentation holds the segmentation stage parameters. The per-channel
// fields are populated only on fanned-out channel tasks.
type Segmentation struct {
	Channels          []string `json:"channels"`
	InputData         string   `json:"input_data,omitempty"`
	Channel           string   `json:"channel,omitempty"`
	BackgroundChannel string   `json:"background_channel,omitempty"`
}

// Quantification holds the quantification parameters attached to each
// fanned-out channel task.
type Quantification struct {
	FusedFolder string `json:"fused_folder"`
	Channel     string `json:"channel"`
	SavePath    string `json:"save_path"`
}

// PipelineProcessing is the nested stage-parameter block of a specification.
type PipelineProcessing struct {
	Registration Registration `json:"registration"`
	Stitching    Stitching    `json:"stitching"`
	Segmentation Segmentation `json:"segmentation"`
}

// Specification is the processing specification driving one pipeline run.
type Specification struct {
	Name               string              `json:"name,omitempty"`
	PipelineProcessing *PipelineProcessing `json:"pipeline_processing"`
}

// ChannelTask is a copy of the pipeline-processing block specialized for
// exactly one segmentation channel. Immutable once written; consumed by an
// independently scheduled downstream capsule.
type ChannelTask struct {
	Registration   Registration   `json:"registration"`
	Stitching      Stitching      `json:"stitching"`
	Segmentation   Segmentation   `json:"segmentation"`
	Quantification Quantification `json:"quantification"`
}

// TaskFileName returns the per-channel task filename convention.
func TaskFileName(channel string) string {
	return fmt.Sprintf("segmentation_processing_manifest_%s.json", channel)
}

// LoadSpecification reads and validates a processing specification.
func LoadSpecification(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "read specification", path, err)
	}
	var spec Specification
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "parse specification", path, err)
	}
	return &spec, nil
}

// Save writes the specification with the same four-space indentation the
// upstream capsules use.
func (s *Specification) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "manifest", "encode specification", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "manifest", "write specification", path, err)
	}
	return nil
}

// BackgroundChannel returns the first registration channel, the shared
// background reference every channel task carries.
func (s *Specification) BackgroundChannel() (string, error) {
	if s.PipelineProcessing == nil {
		return "", services.Wrap(services.ErrConfiguration, "manifest", "background channel", "missing pipeline configuration", nil)
	}
	channels := s.PipelineProcessing.Registration.Channels
	if len(channels) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "manifest", "background channel", "no registration channels", nil)
	}
	return channels[0], nil
}

// ValidateInputs checks that every required input file exists and returns the
// full list of missing paths so a single failure report names them all.
func ValidateInputs(paths []string) []string {
	var missing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// WriteJSON serializes v into path with four-space indentation, creating
// parent directories as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// WriteText writes a single human-readable line to path.
func WriteText(line, path string) error {
	return os.WriteFile(path, []byte(strings.TrimRight(line, "\n")+"\n"), 0o644)
}
