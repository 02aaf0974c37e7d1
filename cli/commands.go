package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/remotestate"
	"github.com/runstack-io/runstack/internal/runner"
	"github.com/runstack-io/runstack/internal/stacks"
	"github.com/runstack-io/runstack/internal/vcs"
	"github.com/runstack-io/runstack/options"
)

func newGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Expand the stack definition into per-unit working directories",
		Action: func(cliCtx *cli.Context) error {
			opts, err := parseOptions(cliCtx)
			if err != nil {
				return err
			}

			stack, err := config.LoadStack(opts)
			if err != nil {
				return err
			}

			return stacks.Generate(cliCtx.Context, opts, stack)
		},
	}
}

func newPlanCommand() *cli.Command {
	return newRunCommand("plan", "Plan every selected unit in dependency order", component.ActionPlan)
}

func newApplyCommand() *cli.Command {
	return newRunCommand("apply", "Apply every selected unit in dependency order", component.ActionApply)
}

func newDestroyCommand() *cli.Command {
	return newRunCommand("destroy", "Destroy every selected unit in reverse dependency order", component.ActionDestroy)
}

func newRunCommand(name, usage string, action component.Action) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(cliCtx *cli.Context) error {
			opts, err := parseOptions(cliCtx)
			if err != nil {
				return err
			}

			stack, err := config.LoadStack(opts)
			if err != nil {
				return err
			}

			if err := stacks.Generate(cliCtx.Context, opts, stack); err != nil {
				return err
			}

			store, err := newStateStore(opts)
			if err != nil {
				return err
			}

			r, err := runner.New(opts, stack, store,
				runner.WithChangeDetector(vcs.NewGitChangeDetector(opts.WorkingDir)),
				runner.WithLocker(store),
			)
			if err != nil {
				return err
			}

			return r.Run(cliCtx.Context, action)
		},
	}
}

func newOutputCommand() *cli.Command {
	return &cli.Command{
		Name:      "output",
		Usage:     "Print recorded unit outputs as JSON",
		ArgsUsage: "[unit-name]",
		Action: func(cliCtx *cli.Context) error {
			opts, err := parseOptions(cliCtx)
			if err != nil {
				return err
			}

			stack, err := config.LoadStack(opts)
			if err != nil {
				return err
			}

			store, err := newStateStore(opts)
			if err != nil {
				return err
			}

			if cliCtx.NArg() > 1 {
				return errors.New("output accepts at most one unit name")
			}

			return stacks.Output(cliCtx.Context, opts, stack, store, cliCtx.Args().First())
		},
	}
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every stack found under the working directory with its units",
		Action: func(cliCtx *cli.Context) error {
			opts, err := parseOptions(cliCtx)
			if err != nil {
				return err
			}

			found, err := stacks.Discover(cliCtx.Context, opts)
			if err != nil {
				return err
			}

			for _, stack := range found {
				relDir, err := filepath.Rel(opts.WorkingDir, stack.Dir)
				if err != nil {
					relDir = stack.Dir
				}

				fmt.Fprintf(opts.Writer, "%s (%s)\n", stack.Name, filepath.ToSlash(relDir))

				for _, unit := range stack.Units {
					fmt.Fprintf(opts.Writer, "  %s\t%s\n", unit.Name, unit.Path)
				}
			}

			return nil
		},
	}
}

func newCleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Remove generated stack directories",
		Action: func(cliCtx *cli.Context) error {
			opts, err := parseOptions(cliCtx)
			if err != nil {
				return err
			}

			return stacks.Clean(opts)
		},
	}
}

// newStateStore builds the local state store from the hierarchy's state settings. A hierarchy that does not
// configure state falls back to a development layout under the output directory.
func newStateStore(opts *options.RunOptions) (*remotestate.LocalStore, error) {
	hierarchy, err := config.LoadHierarchy(opts, opts.WorkingDir)
	if err != nil {
		return nil, err
	}

	values, err := hierarchy.MergedValues()
	if err != nil {
		return nil, err
	}

	stateConfig, err := remotestate.ParseConfig(values)
	if err != nil {
		opts.Logger.Debugf("No state configuration in hierarchy, using local development layout: %v", err)

		stateConfig = &remotestate.Config{
			Bucket:  "runstack",
			Account: "local",
		}
	}

	if stateConfig.BaseDir == "" {
		stateConfig.BaseDir = filepath.Join(opts.OutputDir, ".state")
	}

	return remotestate.NewLocalStore(stateConfig, opts.Logger), nil
}
