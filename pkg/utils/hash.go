package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// CalculateFileMD5 returns the hex MD5 digest of the file at path
func CalculateFileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", NewFileAccessError(path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", NewIOError("failed to hash "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CalculateTextMD5 returns the hex MD5 digest of text. The indexer uses it to
// fingerprint a prepared corpus together with its chunking settings.
func CalculateTextMD5(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
