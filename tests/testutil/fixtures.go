package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/systmms/credprune/internal/config"
	"gopkg.in/yaml.v3"
)

// Row is one (application id, secret id) pair for WriteInput.
type Row struct {
	AppID    string
	SecretID string
}

// WriteInput writes a CSV input file with the default header to dir and
// returns its path.
func WriteInput(t *testing.T, dir string, rows ...Row) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(config.DefaultAppIDColumn + "," + config.DefaultSecretIDColumn + "\n")
	for _, r := range rows {
		b.WriteString(r.AppID + "," + r.SecretID + "\n")
	}
	return WriteFile(t, dir, "input.csv", b.String())
}

// WriteConfig marshals def to credprune.yaml in dir and returns its path.
func WriteConfig(t *testing.T, dir string, def *config.Definition) string {
	t.Helper()

	data, err := yaml.Marshal(def)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	return WriteFile(t, dir, config.DefaultPath, string(data))
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
