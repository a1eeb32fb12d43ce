package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// HashBytes returns the hex-encoded sha256 of content. Used for shader
// source content hashes in cache entries and program hashes.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashString returns the hex-encoded sha256 of a string.
func HashString(content string) string {
	return HashBytes([]byte(content))
}

// HashFile returns the hex-encoded sha256 of a file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for hashing: %w", path, err)
	}
	return HashBytes(data), nil
}
