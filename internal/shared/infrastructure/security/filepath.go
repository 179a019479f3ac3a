// Package security validates operator-supplied file paths.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are shell metacharacters never expected in a configured path.
var forbiddenChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// CleanPath validates a configured file path and returns it cleaned,
// absolute and with symlinks resolved. Paths that do not exist yet are
// returned cleaned so a database file can be created there.
func CleanPath(setting, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: path cannot be empty", setting)
	}
	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("%s: path contains forbidden character %q", setting, char)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", setting, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("%s: failed to resolve path: %w", setting, err)
	}
	return resolved, nil
}

// CleanFile is CleanPath for a file that must already exist.
func CleanFile(setting, path string) (string, error) {
	clean, err := CleanPath(setting, path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	if err != nil {
		return "", fmt.Errorf("%s: %w", setting, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %s is a directory", setting, clean)
	}
	return clean, nil
}
