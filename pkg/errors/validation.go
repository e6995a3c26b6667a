package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxPathLength bounds repository-relative paths when no explicit
// limit is configured.
const DefaultMaxPathLength = 4096

// ValidatePackageName validates a package name before it is used in a
// registry request or cache key. It rejects names that could be used for
// path traversal or injection:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No backslashes
//   - Maximum length of 256 characters
//
// Ecosystem-specific rules are applied by [ValidateRegistryName].
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateRegistryName applies the naming rules of the registry that serves
// ecosystem. Ecosystems without a registry grammar only get the generic
// [ValidatePackageName] checks.
func ValidateRegistryName(ecosystem, name string) error {
	switch ecosystem {
	case "npm":
		return ValidateNpmPackageName(name)
	case "pypi":
		return ValidatePythonPackageName(name)
	case "cargo":
		return ValidateCratesPackageName(name)
	case "go":
		return ValidateGoModulePath(name)
	default:
		return ValidatePackageName(name)
	}
}

// ValidateRelPath validates a repository-relative path produced by the
// scanner. Paths are slash-separated, relative, free of traversal segments
// and no longer than maxLen bytes (DefaultMaxPathLength when maxLen <= 0).
func ValidateRelPath(path string, maxLen int) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxPathLength
	}
	if len(path) > maxLen {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxLen)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// ValidateWildcard checks that s contains at most one '*'.
func ValidateWildcard(s string) error {
	if strings.Count(s, "*") > 1 {
		return New(ErrCodeInvalidAliasRule, "%q contains more than one wildcard", s)
	}
	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}
	return nil
}

// npmPackageNameRegex matches npm package names. Legacy names with
// uppercase letters still exist in the registry, so case is not enforced.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-zA-Z0-9-~][a-zA-Z0-9-._~]*/)?[a-zA-Z0-9-~][a-zA-Z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
	}
	return nil
}

// cratesPackageNameRegex matches valid crates.io package names.
var cratesPackageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCratesPackageName validates a crates.io package name.
func ValidateCratesPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crates.io package name: %q", name)
	}
	return nil
}

// goModulePathRegex matches valid Go module paths.
var goModulePathRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._~/-]*$`)

// ValidateGoModulePath validates a Go module path.
func ValidateGoModulePath(path string) error {
	if err := ValidatePackageName(path); err != nil {
		return err
	}
	if !goModulePathRegex.MatchString(path) {
		return New(ErrCodeInvalidPackage, "invalid Go module path: %q", path)
	}
	return nil
}
