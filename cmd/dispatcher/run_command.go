package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dispatcher/internal/run"
)

// newRunCommand handles the scheduler calling convention: a single
// comma-separated "mode,cloud,output" argument.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <mode,cloud,output>",
		Short: "Execute one run using the scheduler argument convention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseRunSpec(args[0])
			if err != nil {
				return err
			}
			return executeRun(cmd, ctx, opts)
		},
	}
}

func newDispatchCommand(ctx *commandContext) *cobra.Command {
	var cloudFlag bool
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Relocate intermediate outputs and fan out channel tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, run.Options{
				Mode:       run.ModeDispatch,
				CloudMode:  cloudFlag,
				OutputPath: outputFlag,
			})
		},
	}
	cmd.Flags().BoolVar(&cloudFlag, "cloud", false, "Relocate to object storage instead of the local filesystem")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Durable output root (bucket name or directory)")
	return cmd
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var cloudFlag bool
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Compile final provenance and relocate channel outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, run.Options{
				Mode:       run.ModeClean,
				CloudMode:  cloudFlag,
				OutputPath: outputFlag,
			})
		},
	}
	cmd.Flags().BoolVar(&cloudFlag, "cloud", false, "Relocate to object storage instead of the local filesystem")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Durable output root (bucket name or directory)")
	return cmd
}

func executeRun(cmd *cobra.Command, ctx *commandContext, opts run.Options) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		opts.OutputPath = cfg.Storage.OutputPath
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return fmt.Errorf("no output path: pass --output or set storage.output_path")
	}
	return run.New(cfg, logger).Execute(cmd.Context(), opts)
}

// parseRunSpec parses the "mode,cloud,output" triple the pipeline scheduler
// passes as a single argument.
func parseRunSpec(raw string) (run.Options, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return run.Options{}, fmt.Errorf("run argument %q: want mode,cloud,output", raw)
	}
	mode, err := run.ParseMode(parts[0])
	if err != nil {
		return run.Options{}, err
	}
	cloud, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(parts[1])))
	if err != nil {
		return run.Options{}, fmt.Errorf("run argument %q: cloud flag: %w", raw, err)
	}
	return run.Options{
		Mode:       mode,
		CloudMode:  cloud,
		OutputPath: strings.TrimSpace(parts[2]),
	}, nil
}
