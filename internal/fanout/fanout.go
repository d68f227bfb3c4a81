// Package fanout splits one processing specification into per-channel task
// files so independently scheduled downstream capsules can each claim exactly
// one channel and run in parallel without contention.
package fanout

import (
	"log/slog"
	"path/filepath"

	"dispatcher/internal/manifest"
	"dispatcher/internal/services"
)

// fusedDataPath is where every downstream capsule finds the shared fused
// dataset inside its own staging area.
const fusedDataPath = "../data/fused"

// taskSavePath is where every downstream capsule writes its results.
const taskSavePath = "../results/"

// Dispatch writes one ChannelTask file per segmentation channel into destDir.
// The specification itself is not modified.
func Dispatch(spec *manifest.Specification, destDir string, logger *slog.Logger) error {
	if spec.PipelineProcessing == nil {
		return services.Wrap(services.ErrConfiguration, "fanout", "dispatch", "missing pipeline configuration", nil)
	}
	pipeline := spec.PipelineProcessing
	if len(pipeline.Segmentation.Channels) == 0 {
		return services.Wrap(services.ErrConfiguration, "fanout", "dispatch", "no segmentation channels", nil)
	}
	background, err := spec.BackgroundChannel()
	if err != nil {
		return err
	}

	for _, ch := range pipeline.Segmentation.Channels {
		task := manifest.ChannelTask{
			Registration: pipeline.Registration,
			Stitching:    pipeline.Stitching,
			Segmentation: manifest.Segmentation{
				Channels:          pipeline.Segmentation.Channels,
				InputData:         fusedDataPath,
				Channel:           ch,
				BackgroundChannel: background,
			},
			Quantification: manifest.Quantification{
				FusedFolder: fusedDataPath,
				Channel:     ch,
				SavePath:    taskSavePath,
			},
		}

		path := filepath.Join(destDir, manifest.TaskFileName(ch))
		if err := manifest.WriteJSON(path, task); err != nil {
			return services.Wrap(services.ErrConfiguration, "fanout", "write channel task", ch, err)
		}
		logger.Info("wrote channel task", slog.String("channel", ch), slog.String("path", path))
	}
	return nil
}
