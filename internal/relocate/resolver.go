package relocate

import (
	"path/filepath"
	"sort"
	"strings"

	"dispatcher/internal/services"
)

// StageSet holds the staged artifacts one pipeline run left behind, grouped
// by producing stage. Every slice is sorted so relocation order is stable.
type StageSet struct {
	DestripeFiles []string
	FlatfieldDirs []string
	StitchDirs    []string
	FuseDirs      []string
	CCFDirs       []string
	CellDirs      []string
	QuantDirs     []string
}

// Discover scans the staging data directory for the artifact naming
// conventions each upstream stage uses.
func Discover(dataDir string) (StageSet, error) {
	var set StageSet
	groups := []struct {
		pattern string
		out     *[]string
	}{
		{"image_destriping_*", &set.DestripeFiles},
		{"flatfield_correction_*", &set.FlatfieldDirs},
		{filepath.Join("stitched", "stitch_*"), &set.StitchDirs},
		{filepath.Join("fused", "fusion_*"), &set.FuseDirs},
		{filepath.Join("ccf_registration_results", "ccf_*"), &set.CCFDirs},
		{"cell_*", &set.CellDirs},
		{"quant_*", &set.QuantDirs},
	}
	for _, group := range groups {
		matches, err := filepath.Glob(filepath.Join(dataDir, group.pattern))
		if err != nil {
			return StageSet{}, services.Wrap(services.ErrDiscovery, "relocate", "scan staging area", group.pattern, err)
		}
		sort.Strings(matches)
		*group.out = matches
	}
	return set, nil
}

// ChannelStores maps fusion stage directories to their relocated Zarr store
// paths under the shared OMEZarr destination. "fusion_Ex_488_Em_525" becomes
// "<zarrPath>/Ex_488_Em_525.zarr".
func ChannelStores(zarrPath string, fuseDirs []string) []string {
	stores := make([]string, 0, len(fuseDirs))
	for _, dir := range fuseDirs {
		name := strings.TrimPrefix(filepath.Base(dir), "fusion_")
		stores = append(stores, joinPath(zarrPath, name+".zarr"))
	}
	sort.Strings(stores)
	return stores
}
