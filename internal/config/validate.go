package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.ResultsDir,
		&c.Paths.LogDir,
		&c.Journal.Path,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Transfer.AWSBinary = strings.TrimSpace(c.Transfer.AWSBinary)
	c.Viewer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Viewer.BaseURL), "/")
	c.Viewer.Palette = strings.ToLower(strings.TrimSpace(c.Viewer.Palette))
	c.Pipeline.Version = strings.TrimSpace(c.Pipeline.Version)
	c.Pipeline.Processor = strings.TrimSpace(c.Pipeline.Processor)
	c.Pipeline.RepositoryURL = strings.TrimSpace(c.Pipeline.RepositoryURL)
	c.Storage.OutputPath = strings.Trim(strings.TrimSpace(c.Storage.OutputPath), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate checks that every field downstream components rely on is usable.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if c.Paths.ResultsDir == "" {
		problems = append(problems, "paths.results_dir is required")
	}
	if c.Transfer.AWSBinary == "" {
		problems = append(problems, "transfer.aws_binary is required")
	}
	if c.Viewer.BaseURL == "" {
		problems = append(problems, "viewer.base_url is required")
	}
	switch c.Viewer.Palette {
	case "", "fpbase", "cie":
	default:
		problems = append(problems, fmt.Sprintf("viewer.palette %q is not one of fpbase, cie", c.Viewer.Palette))
	}
	if c.Pipeline.Version == "" {
		problems = append(problems, "pipeline.version is required")
	}
	if c.Pipeline.Processor == "" {
		problems = append(problems, "pipeline.processor is required")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		problems = append(problems, "journal.path is required when journal.enabled is true")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
