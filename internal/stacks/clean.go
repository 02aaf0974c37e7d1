package stacks

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-zglob"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
)

// Clean removes every generated stack directory under the working dir, including nested ones.
func Clean(opts *options.RunOptions) error {
	pattern := filepath.Join(opts.WorkingDir, "**", options.DefaultStackDir)

	matches, err := zglob.Glob(pattern)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	// The top-level generated dir is not matched by the recursive pattern on some platforms; check it explicitly.
	topLevel := filepath.Join(opts.WorkingDir, options.DefaultStackDir)
	if _, statErr := os.Stat(topLevel); statErr == nil {
		matches = append(matches, topLevel)
	}

	removed := map[string]bool{}

	for _, match := range matches {
		if removed[match] {
			continue
		}

		opts.Logger.Infof("Removing generated directory %s", match)

		if err := os.RemoveAll(match); err != nil {
			return errors.Errorf("failed to remove %s: %w", match, err)
		}

		removed[match] = true
	}

	return nil
}
