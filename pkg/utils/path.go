package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nodewee/docrag/pkg/constants"
)

// ExpandPath expands environment variables and a leading ~ in path
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded := os.ExpandEnv(path)

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", NewSystemError("failed to get user home directory", err)
		}
		expanded = filepath.Join(homeDir, strings.TrimPrefix(expanded, "~"))
	}

	return filepath.Clean(expanded), nil
}

// EnsureDir creates dirPath and its parents if they do not exist
func EnsureDir(dirPath string) error {
	if dirPath == "" || dirPath == "." {
		return nil
	}
	if err := os.MkdirAll(dirPath, constants.DefaultDirPermission); err != nil {
		return WrapError(err, ErrorTypeIO, "failed to create directory: "+dirPath)
	}
	return nil
}

// SiblingPath returns name placed in the same directory as path
func SiblingPath(path, name string) string {
	return filepath.Join(filepath.Dir(path), name)
}
