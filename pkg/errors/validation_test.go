package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "requests", false},
		{"valid with dash", "my-package", false},
		{"valid with dot", "my.package", false},
		{"valid scoped npm", "@scope/package", false},
		{"valid foundry owner/repo", "transmissions11/solmate", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRegistryName(t *testing.T) {
	tests := []struct {
		ecosystem string
		input     string
		wantErr   bool
	}{
		{"npm", "express", false},
		{"npm", "@types/node", false},
		{"npm", "JSONStream", false},
		{"npm", "my package", true},
		{"pypi", "requests", false},
		{"pypi", "-bad", true},
		{"cargo", "serde_json", false},
		{"cargo", "1crate", true},
		{"go", "github.com/spf13/cobra", false},
		{"go", "module@latest", true},
		{"solidity", "@openzeppelin/contracts", false},
		{"solidity", "../escape", true},
	}

	for _, tt := range tests {
		t.Run(tt.ecosystem+"/"+tt.input, func(t *testing.T) {
			err := ValidateRegistryName(tt.ecosystem, tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegistryName(%q, %q) error = %v, wantErr %v", tt.ecosystem, tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("wrong error code: %v", err)
			}
		})
	}
}

func TestValidateRelPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxLen  int
		wantErr bool
	}{
		{"valid simple", "src/main.go", 0, false},
		{"valid nested", "pkg/internal/util/helpers.go", 0, false},
		{"valid dotted segment", "v1..2/package.json", 0, false},

		{"empty", "", 0, true},
		{"over custom limit", "abcdefghij", 5, true},
		{"over default limit", strings.Repeat("a", DefaultMaxPathLength+1), 0, true},
		{"absolute path", "/etc/passwd", 0, true},
		{"path traversal", "../../../etc/passwd", 0, true},
		{"path traversal middle", "foo/../bar", 0, true},
		{"null byte", "foo\x00bar", 0, true},
		{"backslash", "foo\\bar", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelPath(tt.input, tt.maxLen)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateRelPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/owner/repo", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ssh", "git@github.com:owner/repo.git", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "github.com/owner/repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWildcard(t *testing.T) {
	if err := ValidateWildcard("@/*"); err != nil {
		t.Errorf("single wildcard should pass: %v", err)
	}
	if err := ValidateWildcard("src/lib"); err != nil {
		t.Errorf("no wildcard should pass: %v", err)
	}
	err := ValidateWildcard("*/*")
	if err == nil {
		t.Fatal("double wildcard should fail")
	}
	if !Is(err, ErrCodeInvalidAliasRule) {
		t.Errorf("wrong error code: %v", err)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidAliasRule,
		ErrCodeInvalidPackage,
		ErrCodeInvalidManifest,
		ErrCodeInvalidPath,
		ErrCodeRootNotFound,
		ErrCodeRootUnreadable,
		ErrCodeResourceLimit,
		ErrCodeCancelled,
		ErrCodeNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
