package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

// File extension sets for the inputs this tool understands
var (
	ImageExtensions = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
		"tiff": true, "tif": true, "webp": true,
	}

	MarkdownExtensions = map[string]bool{
		"md": true, "markdown": true, "txt": true,
	}
)

// GetFileInfo extracts basic information about a file
func GetFileInfo(filePath string) (*types.FileInfo, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, NewFileAccessError(filePath, err)
	}
	if stat.IsDir() {
		return nil, NewValidationError(fmt.Sprintf("expected a file, got a directory: %s", filePath), nil)
	}

	md5Hash, err := CalculateFileMD5(filePath)
	if err != nil {
		return nil, err
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))

	return &types.FileInfo{
		Path:      filePath,
		MD5Hash:   md5Hash,
		Extension: extension,
		Size:      stat.Size(),
		MediaType: determineMediaType(extension),
	}, nil
}

// IsImageFile determines if a file is an image file
func IsImageFile(extension string) bool {
	return ImageExtensions[strings.ToLower(extension)]
}

// IsMarkdownFile determines if a file holds Markdown or plain text
func IsMarkdownFile(extension string) bool {
	return MarkdownExtensions[strings.ToLower(extension)]
}

func determineMediaType(extension string) types.MediaType {
	switch {
	case IsImageFile(extension):
		return types.ImageMediaType
	case IsMarkdownFile(extension):
		return types.MarkdownMediaType
	default:
		return types.UnknownMediaType
	}
}

// ReadTextFile reads a whole UTF-8 text file. A missing or unreadable file is
// reported as a file access error.
func ReadTextFile(path string) (string, error) {
	if path == "" {
		return "", NewValidationError("file path cannot be empty", nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", NewPermissionError(fmt.Sprintf("cannot read file: %s", path), err)
		}
		return "", NewFileAccessError(path, err)
	}

	if !utf8.Valid(content) {
		return "", NewConversionError(fmt.Sprintf("file is not valid UTF-8: %s", path), nil)
	}

	return string(content), nil
}

// WriteTextFile writes text to path, creating parent directories as needed
func WriteTextFile(path, text string) error {
	if path == "" {
		return NewValidationError("output path cannot be empty", nil)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, constants.DefaultDirPermission); err != nil {
			return WrapError(err, ErrorTypeIO, "failed to create output directory")
		}
	}

	if err := os.WriteFile(path, []byte(text), constants.DefaultFilePermission); err != nil {
		return WrapError(err, ErrorTypeIO, fmt.Sprintf("failed to write file: %s", path))
	}
	return nil
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
