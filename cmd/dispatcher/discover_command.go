package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dispatcher/internal/relocate"
)

// newDiscoverCommand previews what a run would relocate without touching
// anything.
func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the staged artifacts a run would relocate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stages, err := relocate.Discover(cfg.Paths.DataDir)
			if err != nil {
				return err
			}

			groups := []struct {
				stage string
				paths []string
			}{
				{"destriping", stages.DestripeFiles},
				{"flatfield", stages.FlatfieldDirs},
				{"stitching", stages.StitchDirs},
				{"fusion", stages.FuseDirs},
				{"ccf", stages.CCFDirs},
				{"cell", stages.CellDirs},
				{"quantification", stages.QuantDirs},
			}

			tw := table.NewWriter()
			tw.SetStyle(tableStyle(cmd.OutOrStdout() == os.Stdout))
			tw.AppendHeader(table.Row{"STAGE", "ARTIFACT"})
			total := 0
			for _, group := range groups {
				for _, path := range group.paths {
					tw.AppendRow(table.Row{group.stage, filepath.Base(path)})
					total++
				}
			}

			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintf(out, "No staged artifacts under %s\n", cfg.Paths.DataDir)
				return nil
			}
			fmt.Fprintln(out, tw.Render())
			fmt.Fprintf(out, "%d artifact(s) under %s\n", total, cfg.Paths.DataDir)
			return nil
		},
	}
}

// tableStyle picks the rounded style for interactive terminals and the plain
// one for captured output.
func tableStyle(stdout bool) table.Style {
	if stdout && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
		return table.StyleRounded
	}
	return table.StyleDefault
}
