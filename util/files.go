package util

import (
	"io"
	"os"
	"path/filepath"
)

const copyDirPerm = 0755

// FileExists returns true if the path points at an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir returns true if the path points at an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// GetPathRelativeTo returns the relative path you would have to take to get from basePath to path. Both paths are
// made absolute before computing the relation so the result is stable regardless of the working directory.
func GetPathRelativeTo(path string, basePath string) (string, error) {
	if path == "" {
		path = "."
	}

	if basePath == "" {
		basePath = "."
	}

	inputFolderAbs, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}

	fileAbs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(inputFolderAbs, fileAbs)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relPath), nil
}

// JoinPath always joins with the / separator, no matter the OS. Paths in configuration files are written with
// forward slashes and should stay that way in output.
func JoinPath(elem ...string) string {
	return filepath.ToSlash(filepath.Join(elem...))
}

// CopyFolderContents copies the files and folders within source into destination, passing each entry through the
// filter and skipping it when the filter returns false. A nil filter copies everything.
func CopyFolderContents(source, destination string, filter func(absolutePath string) bool) error {
	if err := os.MkdirAll(destination, copyDirPerm); err != nil {
		return err
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		src := filepath.Join(source, entry.Name())
		if filter != nil && !filter(src) {
			continue
		}

		dest := filepath.Join(destination, entry.Name())

		if entry.IsDir() {
			if err := CopyFolderContents(src, dest, filter); err != nil {
				return err
			}

			continue
		}

		if err := copyFile(src, dest); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// CanonicalPath returns the canonical version of the given path, relative to the given base path, cleaned and
// converted to an absolute path.
func CanonicalPath(path string, basePath string) (string, error) {
	if !filepath.IsAbs(path) {
		path = JoinPath(basePath, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Clean(absPath)), nil
}
