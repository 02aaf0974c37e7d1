package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/runstack-io/runstack/cli"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/pkg/log"
)

// version is set at build time via -ldflags.
var version = "dev"

// The main entrypoint for runstack.
func main() {
	logger := log.Default()

	defer errors.Recover(checkForErrorsAndExit(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(version)
	err := app.RunContext(ctx, os.Args)

	checkForErrorsAndExit(logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(1)
	}
}
