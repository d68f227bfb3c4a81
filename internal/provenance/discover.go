package provenance

import (
	"path/filepath"
	"sort"
	"strings"
)

// Fragments returns the provenance fragment files under a stage directory's
// metadata subdirectory, excluding manifest files, in sorted order.
func Fragments(stageDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(stageDir, "metadata", "*processing*.json"))
	if err != nil {
		return nil, err
	}
	fragments := matches[:0]
	for _, match := range matches {
		if strings.Contains(filepath.Base(match), "manifest") {
			continue
		}
		fragments = append(fragments, match)
	}
	sort.Strings(fragments)
	return fragments, nil
}

// CollectFragments gathers fragments from every stage directory, preserving
// the given stage order. Stages without fragments contribute nothing; that is
// not an error.
func CollectFragments(stageDirs []string) ([]string, error) {
	var all []string
	for _, dir := range stageDirs {
		fragments, err := Fragments(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, fragments...)
	}
	return all, nil
}
