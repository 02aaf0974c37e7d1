package stacks

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-zglob"
	"golang.org/x/sync/errgroup"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/util"
)

// Discover finds every stack definition file under the working dir and loads them concurrently. Files inside
// generated stack directories are ignored so a re-run after generate does not pick up its own output. Results
// come back sorted by stack dir so discovery order is stable.
func Discover(ctx context.Context, opts *options.RunOptions) ([]*component.Stack, error) {
	pattern := filepath.Join(opts.WorkingDir, "**", options.DefaultStackConfigName)

	matches, err := zglob.Glob(pattern)
	if err != nil {
		return nil, err
	}

	topLevel := filepath.Join(opts.WorkingDir, options.DefaultStackConfigName)
	if util.FileExists(topLevel) && !containsPath(matches, topLevel) {
		matches = append(matches, topLevel)
	}

	var (
		mu     sync.Mutex
		stacks []*component.Stack
	)

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(opts.Parallelism)

	for _, match := range matches {
		if insideGeneratedDir(match) {
			continue
		}

		group.Go(func() error {
			stackOpts := opts.Clone()
			stackOpts.StackConfigPath = filepath.ToSlash(match)
			stackOpts.WorkingDir = filepath.Dir(match)

			stack, err := config.LoadStack(stackOpts)
			if err != nil {
				return err
			}

			mu.Lock()
			stacks = append(stacks, stack)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(stacks, func(i, j int) bool {
		return stacks[i].Dir < stacks[j].Dir
	})

	return stacks, nil
}

func insideGeneratedDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == options.DefaultStackDir {
			return true
		}
	}

	return false
}

func containsPath(paths []string, target string) bool {
	cleaned := filepath.Clean(target)
	for _, p := range paths {
		if filepath.Clean(p) == cleaned {
			return true
		}
	}

	return false
}
