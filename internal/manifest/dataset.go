package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dispatcher/internal/fileutil"
	"dispatcher/internal/services"
)

// DataDescriptionName is the dataset description filename.
const DataDescriptionName = "data_description.json"

// RawMetadataDir is the staging subdirectory holding the acquisition
// metadata the upstream instrument produced.
const RawMetadataDir = "input_aind_metadata"

// DerivedMetadataDir is the results subdirectory where dispatch mode builds
// the derived dataset metadata.
const DerivedMetadataDir = "output_aind_metadata"

// rawMetadataFiles are the instrument metadata files carried forward into the
// derived dataset when present.
var rawMetadataFiles = []string{
	"acquisition.json",
	"instrument.json",
	"subject.json",
	"procedures.json",
	"session.json",
}

// DataDescription is the subset of the dataset description the dispatcher
// reads and republishes. Fields the dispatcher never interprets are carried
// as raw JSON so the derived document keeps them intact.
type DataDescription struct {
	Name          string            `json:"name"`
	SubjectID     string            `json:"subject_id,omitempty"`
	Institution   json.RawMessage   `json:"institution,omitempty"`
	Investigators []json.RawMessage `json:"investigators,omitempty"`
	FundingSource json.RawMessage   `json:"funding_source,omitempty"`
	Group         string            `json:"group,omitempty"`
	ProjectName   string            `json:"project_name,omitempty"`
	Restrictions  json.RawMessage   `json:"restrictions,omitempty"`
	CreationTime  string            `json:"creation_time,omitempty"`
	InputDataName string            `json:"input_data_name,omitempty"`
	ProcessName   string            `json:"process_name,omitempty"`
}

// LoadDataDescription reads and validates a dataset description document.
func LoadDataDescription(path string) (*DataDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "read data description", path, err)
	}
	var desc DataDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "parse data description", path, err)
	}
	if desc.Name == "" {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "parse data description", "name is empty", nil)
	}
	return &desc, nil
}

// Derive builds the derived dataset description for a processed dataset. The
// new dataset name follows the <input>_<process>_<timestamp> convention.
func (d *DataDescription) Derive(processName string, now time.Time) DataDescription {
	derived := *d
	derived.InputDataName = d.Name
	derived.ProcessName = processName
	derived.CreationTime = now.Format(time.RFC3339)
	derived.Name = fmt.Sprintf("%s_%s_%s", d.Name, processName, now.Format("2006-01-02_15-04-05"))
	return derived
}

// BuildDerivedMetadata creates the derived metadata directory under
// resultsDir: a derived data description plus copies of whichever instrument
// metadata files exist under the raw metadata directory. Returns the derived
// metadata path, the new dataset name, and the list of copied files.
func BuildDerivedMetadata(dataDir, resultsDir, processName string, now time.Time) (string, string, []string, error) {
	rawDir := filepath.Join(dataDir, RawMetadataDir)
	desc, err := LoadDataDescription(filepath.Join(rawDir, DataDescriptionName))
	if err != nil {
		return "", "", nil, err
	}

	outDir := filepath.Join(resultsDir, DerivedMetadataDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", nil, services.Wrap(services.ErrConfiguration, "manifest", "create derived metadata dir", outDir, err)
	}

	derived := desc.Derive(processName, now)
	if err := WriteJSON(filepath.Join(outDir, DataDescriptionName), derived); err != nil {
		return "", "", nil, services.Wrap(services.ErrConfiguration, "manifest", "write derived data description", outDir, err)
	}

	var copied []string
	for _, name := range rawMetadataFiles {
		src := filepath.Join(rawDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := fileutil.CopyFile(src, filepath.Join(outDir, name)); err != nil {
			return "", "", nil, services.Wrap(services.ErrConfiguration, "manifest", "copy raw metadata", name, err)
		}
		copied = append(copied, name)
	}

	return outDir, derived.Name, copied, nil
}
