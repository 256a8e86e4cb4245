package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// OpenAPIPath returns the location of the OpenAPI document.
func OpenAPIPath(t testing.TB) string {
	t.Helper()
	root, err := ProjectRoot()
	if err != nil {
		t.Fatalf("project root: %v", err)
	}
	return filepath.Join(root, "docs", "api", "openapi.yaml")
}
