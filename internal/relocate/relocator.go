package relocate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dispatcher/internal/channel"
	"dispatcher/internal/journal"
	"dispatcher/internal/manifest"
	"dispatcher/internal/provenance"
	"dispatcher/internal/services"
	"dispatcher/internal/transfer"
)

// Dataset layout directories under the relocated dataset root.
const (
	FusingDir       = "image_tile_fusing"
	AlignmentDir    = "image_atlas_alignment"
	SegmentationDir = "image_cell_segmentation"
	QuantDir        = "image_cell_quantification"

	omeZarrDir   = "OMEZarr"
	metadataDir  = "metadata"
	flatfieldDir = "flatfield_correction"
)

// Summary files written into the results directory so the scheduler can
// report where each output landed.
const (
	StitchingSummaryName      = "output_stitching.txt"
	CellSummaryName           = "output_cell.txt"
	QuantificationSummaryName = "output_quantification.txt"
)

// Relocator moves staged artifacts into their durable dataset layout,
// recording every transfer in the journal when one is attached.
type Relocator struct {
	Client   transfer.Client
	Journal  *journal.Store
	Logger   *slog.Logger
	Compiler provenance.Compiler
	RunID    string
	Mode     string
}

// StageRequest carries the inputs for dispatch-mode relocation.
type StageRequest struct {
	ResultsDir         string
	DerivedMetadataDir string
	DatasetPath        string
	Stages             StageSet
}

// CleanRequest carries the inputs for clean-mode relocation.
type CleanRequest struct {
	DataDir     string
	ResultsDir  string
	DatasetPath string
	Stages      StageSet
}

// StageIntermediate relocates every intermediate stage output into the
// dataset layout and returns the shared OMEZarr destination path.
//
// The intermediate provenance compile is best effort: the same fragments are
// recompiled during clean mode, so a failure here only costs the copy of the
// document that rides along with the derived metadata.
func (r *Relocator) StageIntermediate(ctx context.Context, req StageRequest) (string, error) {
	if fragments, err := r.intermediateFragments(req.Stages); err != nil {
		r.Logger.Warn("skipping intermediate provenance compile", slog.String("error", err.Error()))
	} else if _, err := r.Compiler.Compile(fragments, req.DerivedMetadataDir); err != nil {
		r.Logger.Warn("skipping intermediate provenance compile", slog.String("error", err.Error()))
	}

	if err := r.relocate(ctx, "copy", r.Client.Copy, req.DerivedMetadataDir, req.DatasetPath); err != nil {
		return "", err
	}

	for _, dir := range req.Stages.FlatfieldDirs {
		dst := joinPath(req.DatasetPath, FusingDir, metadataDir, flatfieldDir, filepath.Base(dir))
		if err := r.relocate(ctx, "copy", r.Client.Copy, dir, dst); err != nil {
			return "", err
		}
	}

	zarrPath := joinPath(req.DatasetPath, FusingDir, omeZarrDir)
	for _, dir := range req.Stages.FuseDirs {
		store := filepath.Join(dir, omeZarrDir)
		meta := filepath.Join(dir, metadataDir)
		if _, err := os.Stat(store); err != nil {
			return "", services.Wrap(services.ErrDiscovery, "relocate", "stage fusion", dir+": missing "+omeZarrDir, err)
		}
		if _, err := os.Stat(meta); err != nil {
			return "", services.Wrap(services.ErrDiscovery, "relocate", "stage fusion", dir+": missing "+metadataDir, err)
		}
		if err := r.relocate(ctx, "copy", r.Client.Copy, store, zarrPath); err != nil {
			return "", err
		}
		if err := r.relocate(ctx, "copy", r.Client.Copy, meta, joinPath(req.DatasetPath, FusingDir, metadataDir, filepath.Base(dir))); err != nil {
			return "", err
		}
	}

	for _, dir := range req.Stages.StitchDirs {
		meta := filepath.Join(dir, metadataDir)
		if _, err := os.Stat(meta); err != nil {
			return "", services.Wrap(services.ErrDiscovery, "relocate", "stage stitching", dir+": missing "+metadataDir, err)
		}
		if err := r.relocate(ctx, "copy", r.Client.Copy, meta, joinPath(req.DatasetPath, FusingDir, metadataDir, filepath.Base(dir))); err != nil {
			return "", err
		}
	}

	for _, dir := range req.Stages.CCFDirs {
		token, err := channel.ParseToken(dir)
		if err != nil {
			return "", err
		}
		if err := r.relocate(ctx, "move", r.Client.Move, dir, joinPath(req.DatasetPath, AlignmentDir, token.Name)); err != nil {
			return "", err
		}
	}

	summary := filepath.Join(req.ResultsDir, StitchingSummaryName)
	if err := manifest.WriteText(req.DatasetPath, summary); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "relocate", "write summary", summary, err)
	}
	return zarrPath, nil
}

// CleanUp compiles the final provenance document and relocates the
// per-channel segmentation and quantification outputs. Unlike the
// intermediate compile, a provenance failure here is fatal: the compiled
// document is the dataset's permanent processing record.
func (r *Relocator) CleanUp(ctx context.Context, req CleanRequest) error {
	fragments := []string{filepath.Join(req.DataDir, manifest.DerivedMetadataDir, provenance.DocumentName)}
	for _, dirs := range [][]string{req.Stages.CellDirs, req.Stages.QuantDirs} {
		more, err := provenance.CollectFragments(dirs)
		if err != nil {
			return services.Wrap(services.ErrProvenance, "relocate", "collect fragments", "", err)
		}
		fragments = append(fragments, more...)
	}
	if _, err := r.Compiler.Compile(fragments, req.ResultsDir); err != nil {
		return err
	}
	document := filepath.Join(req.ResultsDir, provenance.DocumentName)
	if err := r.relocate(ctx, "move", r.Client.MoveFile, document, joinPath(req.DatasetPath, provenance.DocumentName)); err != nil {
		return err
	}

	for _, dir := range req.Stages.CellDirs {
		token, err := channel.ParseToken(dir)
		if err != nil {
			return err
		}
		if err := r.relocate(ctx, "move", r.Client.Move, dir, joinPath(req.DatasetPath, SegmentationDir, token.Name)); err != nil {
			return err
		}
	}
	for _, dir := range req.Stages.QuantDirs {
		token, err := channel.ParseToken(dir)
		if err != nil {
			return err
		}
		if err := r.relocate(ctx, "move", r.Client.Move, dir, joinPath(req.DatasetPath, QuantDir, token.Name)); err != nil {
			return err
		}
	}

	summaries := []struct{ content, name string }{
		{joinPath(req.DatasetPath, SegmentationDir), CellSummaryName},
		{joinPath(req.DatasetPath, QuantDir), QuantificationSummaryName},
	}
	for _, summary := range summaries {
		path := filepath.Join(req.ResultsDir, summary.name)
		if err := manifest.WriteText(summary.content, path); err != nil {
			return services.Wrap(services.ErrConfiguration, "relocate", "write summary", path, err)
		}
	}
	return nil
}

// PublishFile copies a single results file to the dataset root, keeping its
// basename.
func (r *Relocator) PublishFile(ctx context.Context, src, datasetPath string) error {
	return r.relocate(ctx, "copy", r.Client.CopyFile, src, joinPath(datasetPath, filepath.Base(src)))
}

// intermediateFragments gathers the provenance fragments the pre-dispatch
// stages produced. Destriping emits bare fragment files into the staging
// root; the later stages keep theirs under a metadata subdirectory.
func (r *Relocator) intermediateFragments(stages StageSet) ([]string, error) {
	var fragments []string
	for _, path := range stages.DestripeFiles {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			sub, err := provenance.Fragments(path)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, sub...)
			continue
		}
		fragments = append(fragments, path)
	}

	var stageDirs []string
	stageDirs = append(stageDirs, stages.FlatfieldDirs...)
	stageDirs = append(stageDirs, stages.StitchDirs...)
	stageDirs = append(stageDirs, stages.FuseDirs...)
	stageDirs = append(stageDirs, stages.CCFDirs...)
	more, err := provenance.CollectFragments(stageDirs)
	if err != nil {
		return nil, err
	}
	return append(fragments, more...), nil
}

// relocate runs one transfer, streams its progress to the debug log, and
// records the outcome in the journal before reporting it.
func (r *Relocator) relocate(ctx context.Context, op string, fn func(context.Context, string, string, func(string)) error, src, dst string) error {
	r.Logger.Info("relocating", slog.String("op", op), slog.String("src", src), slog.String("dst", dst))
	err := fn(ctx, src, dst, func(line string) {
		r.Logger.Debug("transfer", slog.String("line", line))
	})

	entry := journal.Entry{
		RunID:       r.RunID,
		Mode:        r.Mode,
		Op:          op,
		Source:      src,
		Destination: dst,
		Status:      journal.StatusCompleted,
	}
	if err != nil {
		entry.Status = journal.StatusFailed
		entry.Detail = err.Error()
	}
	if recordErr := r.Journal.Record(ctx, entry); recordErr != nil {
		r.Logger.Warn("journal write failed", slog.String("error", recordErr.Error()))
	}
	return err
}

// joinPath joins dataset path elements with forward slashes so cloud URIs
// keep their scheme intact. Local paths on this platform use the same
// separator.
func joinPath(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			part = strings.Trim(part, "/")
		} else {
			part = strings.TrimRight(part, "/")
		}
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.Join(cleaned, "/")
}
