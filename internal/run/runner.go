package run

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dispatcher/internal/channel"
	"dispatcher/internal/config"
	"dispatcher/internal/fanout"
	"dispatcher/internal/journal"
	"dispatcher/internal/logging"
	"dispatcher/internal/manifest"
	"dispatcher/internal/provenance"
	"dispatcher/internal/relocate"
	"dispatcher/internal/services"
	"dispatcher/internal/transfer"
	"dispatcher/internal/viewer"
)

// lockName guards the staging area against concurrent runs.
const lockName = "dispatcher.lock"

// stitchedProcessName is the process suffix stamped into derived dataset
// names.
const stitchedProcessName = "stitched"

// Options selects the mode and durable-storage target for one run.
type Options struct {
	Mode       Mode
	CloudMode  bool
	OutputPath string
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient overrides the transfer client (primarily for tests).
func WithClient(client transfer.Client) Option {
	return func(r *Runner) {
		if client != nil {
			r.client = client
		}
	}
}

// WithClock overrides the time source used for derived dataset names.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes one dispatch or clean run against the staging area.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	client transfer.Client
	now    func() time.Time
}

// New constructs a Runner.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Execute runs one mode end to end: lock the staging area, wire the transfer
// client and journal, then hand off to the mode sequence.
func (r *Runner) Execute(ctx context.Context, opts Options) error {
	runID := uuid.NewString()
	logger := r.logger.With(
		slog.String(logging.FieldRunID, runID),
		slog.String(logging.FieldMode, string(opts.Mode)))

	if err := r.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "prepare directories", "", err)
	}

	lock := flock.New(filepath.Join(r.cfg.Paths.ResultsDir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "lock staging area", lock.Path(), err)
	}
	if !locked {
		return services.Wrap(services.ErrConfiguration, "run", "lock staging area",
			"another run holds "+lock.Path(), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("release staging lock failed", slog.String("error", unlockErr.Error()))
		}
	}()

	var store *journal.Store
	if r.cfg.Journal.Enabled {
		store, err = journal.Open(r.cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", slog.String("error", err.Error()))
			store = nil
		} else {
			defer store.Close()
		}
	}

	client := r.client
	if client == nil {
		if opts.CloudMode {
			client, err = transfer.NewS3(r.cfg.Transfer.AWSBinary)
			if err != nil {
				return err
			}
		} else {
			client = transfer.NewLocal()
		}
	}

	relocator := &relocate.Relocator{
		Client:  client,
		Journal: store,
		Logger:  logging.WithComponent(logger, "relocate"),
		Compiler: provenance.Compiler{
			Processor:     r.cfg.Pipeline.Processor,
			Version:       r.cfg.Pipeline.Version,
			RepositoryURL: r.cfg.Pipeline.RepositoryURL,
		},
		RunID: runID,
		Mode:  string(opts.Mode),
	}

	logger.Info("run starting", slog.Bool("cloud", opts.CloudMode), slog.String("output", opts.OutputPath))
	switch opts.Mode {
	case ModeDispatch:
		return r.dispatch(ctx, opts, relocator, logger)
	case ModeClean:
		return r.clean(ctx, opts, relocator, logger)
	default:
		return services.Wrap(services.ErrConfiguration, "run", "execute",
			"mode "+string(opts.Mode)+" has not been implemented", nil)
	}
}

// dispatch relocates the intermediate stage outputs, publishes the
// visualization state, and fans the specification out into per-channel tasks.
func (r *Runner) dispatch(ctx context.Context, opts Options, relocator *relocate.Relocator, logger *slog.Logger) error {
	dataDir := r.cfg.Paths.DataDir
	resultsDir := r.cfg.Paths.ResultsDir

	required := []string{
		filepath.Join(dataDir, manifest.SpecificationName),
		filepath.Join(dataDir, manifest.RawMetadataDir, manifest.DataDescriptionName),
	}
	if missing := manifest.ValidateInputs(required); len(missing) > 0 {
		return services.Wrap(services.ErrMissingInput, "run", "validate inputs", strings.Join(missing, ", "), nil)
	}

	spec, err := manifest.LoadSpecification(filepath.Join(dataDir, manifest.SpecificationName))
	if err != nil {
		return err
	}
	resolution, err := axisResolutions(spec)
	if err != nil {
		return err
	}

	derivedDir, datasetName, copied, err := manifest.BuildDerivedMetadata(dataDir, resultsDir, stitchedProcessName, r.now())
	if err != nil {
		return err
	}
	logger.Info("derived metadata ready",
		slog.String("dataset", datasetName),
		slog.Int("raw_files", len(copied)))

	stages, err := relocate.Discover(dataDir)
	if err != nil {
		return err
	}

	datasetPath := DatasetPath(opts.CloudMode, opts.OutputPath, datasetName)
	zarrPath, err := relocator.StageIntermediate(ctx, relocate.StageRequest{
		ResultsDir:         resultsDir,
		DerivedMetadataDir: derivedDir,
		DatasetPath:        datasetPath,
		Stages:             stages,
	})
	if err != nil {
		return err
	}

	builder := viewer.New(viewer.ImageConfig{
		XRes:      resolution[0],
		YRes:      resolution[1],
		ZRes:      resolution[2],
		OutputDir: resultsDir,
		BaseURL:   r.cfg.Viewer.BaseURL,
		Palette:   channel.PaletteByName(r.cfg.Viewer.Palette),
	}, logging.WithComponent(logger, "viewer"))

	statePath, link, err := builder.Write(datasetPath, relocate.ChannelStores(zarrPath, stages.FuseDirs))
	if err != nil {
		return err
	}
	if err := relocator.PublishFile(ctx, statePath, datasetPath); err != nil {
		return err
	}
	logger.Info("visualization published", slog.String("ng_link", link))

	spec.Name = datasetName
	spec.PipelineProcessing.Stitching.S3Path = datasetPath
	if err := fanout.Dispatch(spec, resultsDir, logging.WithComponent(logger, "fanout")); err != nil {
		return err
	}
	if err := spec.Save(filepath.Join(resultsDir, manifest.ModifiedSpecificationName)); err != nil {
		return err
	}
	logger.Info("dispatch complete", slog.String("dataset", datasetPath))
	return nil
}

// clean compiles the final provenance document and relocates the per-channel
// outputs the fanned-out capsules produced.
func (r *Runner) clean(ctx context.Context, opts Options, relocator *relocate.Relocator, logger *slog.Logger) error {
	dataDir := r.cfg.Paths.DataDir
	resultsDir := r.cfg.Paths.ResultsDir

	required := []string{
		filepath.Join(dataDir, manifest.ModifiedSpecificationName),
		filepath.Join(dataDir, manifest.DerivedMetadataDir, manifest.DataDescriptionName),
	}
	if missing := manifest.ValidateInputs(required); len(missing) > 0 {
		return services.Wrap(services.ErrMissingInput, "run", "validate inputs", strings.Join(missing, ", "), nil)
	}

	spec, err := manifest.LoadSpecification(filepath.Join(dataDir, manifest.ModifiedSpecificationName))
	if err != nil {
		return err
	}
	desc, err := manifest.LoadDataDescription(filepath.Join(dataDir, manifest.DerivedMetadataDir, manifest.DataDescriptionName))
	if err != nil {
		return err
	}
	spec.Name = desc.Name

	stages, err := relocate.Discover(dataDir)
	if err != nil {
		return err
	}

	datasetPath := DatasetPath(opts.CloudMode, opts.OutputPath, spec.Name)
	if err := relocator.CleanUp(ctx, relocate.CleanRequest{
		DataDir:     dataDir,
		ResultsDir:  resultsDir,
		DatasetPath: datasetPath,
		Stages:      stages,
	}); err != nil {
		return err
	}
	logger.Info("clean complete", slog.String("dataset", datasetPath))
	return nil
}

// DatasetPath resolves the durable destination for a dataset: a bucket URI in
// cloud mode, a directory under the output root otherwise.
func DatasetPath(cloudMode bool, outputPath, datasetName string) string {
	if cloudMode {
		return "s3://" + strings.Trim(outputPath, "/") + "/" + datasetName
	}
	return filepath.Join(outputPath, datasetName)
}

// axisResolutions extracts the x, y, z voxel sizes from the stitching block.
// Upstream writes them in x, y, z order.
func axisResolutions(spec *manifest.Specification) ([3]float64, error) {
	if spec.PipelineProcessing == nil {
		return [3]float64{}, services.Wrap(services.ErrConfiguration, "run", "read resolution", "missing pipeline configuration", nil)
	}
	axes := spec.PipelineProcessing.Stitching.Resolution
	if len(axes) < 3 {
		return [3]float64{}, services.Wrap(services.ErrConfiguration, "run", "read resolution",
			"stitching resolution needs three axes", nil)
	}
	return [3]float64{axes[0].Resolution, axes[1].Resolution, axes[2].Resolution}, nil
}
