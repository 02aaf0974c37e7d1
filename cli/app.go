// Package cli defines the runstack command line interface.
package cli

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/pkg/log"
)

const (
	flagWorkingDir   = "working-dir"
	flagFilter       = "filter"
	flagParallelism  = "parallelism"
	flagOutDir       = "out-dir"
	flagIgnoreErrors = "ignore-errors"
	flagLogLevel     = "log-level"
	flagNoColor      = "no-color"
)

// NewApp builds the runstack CLI application.
func NewApp(version string) *cli.App {
	opts := options.NewRunOptions()

	return &cli.App{
		Name:    "runstack",
		Usage:   "Compose hierarchical infrastructure configuration and run units in dependency order",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagWorkingDir,
				Usage: "Directory to operate in. Stack discovery and hierarchy walks start here.",
			},
			&cli.StringSliceFlag{
				Name:    flagFilter,
				Aliases: []string{"f"},
				Usage:   "Filter query selecting units to run. Repeat to union several queries.",
			},
			&cli.IntFlag{
				Name:  flagParallelism,
				Usage: "Maximum number of units running concurrently.",
				Value: opts.Parallelism,
			},
			&cli.StringFlag{
				Name:  flagOutDir,
				Usage: "Directory generated unit working directories are placed in.",
			},
			&cli.BoolFlag{
				Name:  flagIgnoreErrors,
				Usage: "Keep running units whose dependencies failed instead of skipping them.",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level: error, warn, info, debug or trace.",
				Value: log.InfoLevel.String(),
			},
			&cli.BoolFlag{
				Name:  flagNoColor,
				Usage: "Disable colored log output.",
			},
		},
		Commands: []*cli.Command{
			newGenerateCommand(),
			newPlanCommand(),
			newApplyCommand(),
			newDestroyCommand(),
			newOutputCommand(),
			newListCommand(),
			newCleanCommand(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// parseOptions translates the global flags into run options. Every command action starts here.
func parseOptions(cliCtx *cli.Context) (*options.RunOptions, error) {
	opts := options.NewRunOptions()

	if workingDir := cliCtx.String(flagWorkingDir); workingDir != "" {
		absDir, err := filepath.Abs(workingDir)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}

		opts.WorkingDir = filepath.ToSlash(absDir)
		opts.StackConfigPath = filepath.ToSlash(filepath.Join(absDir, options.DefaultStackConfigName))
		opts.OutputDir = filepath.ToSlash(filepath.Join(absDir, options.DefaultStackDir))
	}

	if outDir := cliCtx.String(flagOutDir); outDir != "" {
		absDir, err := filepath.Abs(outDir)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}

		opts.OutputDir = filepath.ToSlash(absDir)
	}

	if cliCtx.IsSet(flagParallelism) {
		opts.Parallelism = cliCtx.Int(flagParallelism)
	}

	opts.FilterQueries = cliCtx.StringSlice(flagFilter)
	opts.IgnoreErrors = cliCtx.Bool(flagIgnoreErrors)
	opts.NoColor = cliCtx.Bool(flagNoColor)

	level, err := log.ParseLevel(cliCtx.String(flagLogLevel))
	if err != nil {
		return nil, err
	}

	logOpts := []log.Option{
		log.WithLevel(level),
		log.WithOutput(cliCtx.App.ErrWriter),
	}
	if opts.NoColor {
		logOpts = append(logOpts, log.WithDisabledColors())
	}

	opts.Logger = log.New(logOpts...)

	opts.Writer = cliCtx.App.Writer
	opts.ErrWriter = cliCtx.App.ErrWriter

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}
