package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
	"github.com/systmms/credprune/internal/directory"
	"github.com/systmms/credprune/internal/logging"
	"github.com/systmms/credprune/tests/testutil"
)

const (
	secretA = "11111111-1111-1111-1111-111111111111"
	secretB = "22222222-2222-2222-2222-222222222222"
)

// testEnv is a config pointing at a temp dir plus captured console output.
type testEnv struct {
	dir     string
	cfg     *config.Config
	console *testutil.TestLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("AZURE_TENANT_ID", "")
	t.Setenv("AZURE_CLIENT_ID", "")

	dir := t.TempDir()
	console := testutil.NewTestLogger(t)

	return &testEnv{
		dir:     dir,
		console: console,
		cfg: &config.Config{
			Path:   filepath.Join(dir, config.DefaultPath),
			Logger: console.Logger,
		},
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, e.dir, name, content)
}

// useSession makes openSession hand out client and records what it was given.
func useSession(t *testing.T, client directory.Client) *[]config.DirectoryConfig {
	t.Helper()
	var seen []config.DirectoryConfig
	prev := openSession
	openSession = func(ctx context.Context, cfg config.DirectoryConfig, logger *logging.Logger) (*directory.Session, error) {
		seen = append(seen, cfg)
		return directory.NewSession(client, nil), nil
	}
	t.Cleanup(func() { openSession = prev })
	return &seen
}

func failSession(t *testing.T, err error) {
	t.Helper()
	prev := openSession
	openSession = func(ctx context.Context, cfg config.DirectoryConfig, logger *logging.Logger) (*directory.Session, error) {
		return nil, err
	}
	t.Cleanup(func() { openSession = prev })
}

func execute(ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

var errDenied = errors.New("Authorization_RequestDenied: Insufficient privileges to complete the operation.")
