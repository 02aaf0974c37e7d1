// Package vcs implements change detection against a git worktree, backing the changed-since filter syntax.
package vcs

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/runstack-io/runstack/internal/errors"
)

// GitChangeDetector reports paths changed since a ref by shelling out to the git CLI in the working dir.
type GitChangeDetector struct {
	WorkingDir string
}

// NewGitChangeDetector returns a detector rooted at the given directory.
func NewGitChangeDetector(workingDir string) *GitChangeDetector {
	return &GitChangeDetector{WorkingDir: workingDir}
}

// ChangedPaths returns the paths, relative to the working dir, that differ between the given ref and the
// current worktree. An empty ref compares against HEAD.
func (d *GitChangeDetector) ChangedPaths(ref string) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}

	cmd := exec.Command("git", "diff", "--name-only", ref)
	cmd.Dir = d.WorkingDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Errorf("git diff against %s failed: %s: %w", ref, strings.TrimSpace(stderr.String()), err)
	}

	paths := []string{}

	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		paths = append(paths, filepath.ToSlash(line))
	}

	return paths, nil
}
