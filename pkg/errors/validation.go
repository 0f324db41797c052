package errors

import (
	"os"
	"unicode"
)

// ValidateRoot validates a scan root directory.
//
// An empty root is accepted; callers substitute the working directory.
// Otherwise the path must be free of control characters and must name an
// existing directory.
func ValidateRoot(path string) error {
	if path == "" {
		return nil
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Wrap(ErrCodeFileNotFound, err, "root %s does not exist", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "root %s is not a directory", path)
	}
	return nil
}

// ValidateDependencyName rejects names that cannot identify a package.
func ValidateDependencyName(name string) error {
	if name == "" {
		return New(ErrCodeMalformedLockfile, "dependency name cannot be empty")
	}
	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeMalformedLockfile, "dependency name %q contains control characters", name)
		}
	}
	return nil
}
