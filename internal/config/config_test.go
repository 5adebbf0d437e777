package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/credprune/internal/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credprune.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `version: 0
directory:
  tenant_id: 00000000-0000-0000-0000-00000000000a
  client_id: 00000000-0000-0000-0000-00000000000b
  auth: client_secret
  keyring_service: credprune
  timeout: 45s
input:
  app_id_column: ApplicationId
  secret_id_column: KeyId
`)

	cfg := &Config{Path: path, Explicit: true, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())

	d := cfg.Definition
	assert.Equal(t, AuthClientSecret, d.Directory.Auth)
	assert.Equal(t, "credprune", d.Directory.KeyringService)
	assert.Equal(t, DefaultClientSecretEnv, d.Directory.ClientSecretEnv)
	assert.Equal(t, []string{DefaultScope}, d.Directory.Scopes)
	assert.Equal(t, 45*time.Second, d.Directory.RequestTimeout())
	assert.Equal(t, "ApplicationId", d.Input.AppIDColumn)
	assert.Equal(t, "KeyId", d.Input.SecretIDColumn)
	assert.NoError(t, d.Directory.Validate())
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "tenant-from-env")
	t.Setenv("AZURE_CLIENT_ID", "")

	cfg := &Config{Path: filepath.Join(t.TempDir(), "credprune.yaml")}
	require.NoError(t, cfg.Load())

	assert.Equal(t, AuthDefault, cfg.Definition.Directory.Auth)
	assert.Equal(t, "tenant-from-env", cfg.Definition.Directory.TenantID)
	assert.Equal(t, DefaultAppIDColumn, cfg.Definition.Input.AppIDColumn)
	assert.Equal(t, DefaultTimeout, cfg.Definition.Directory.RequestTimeout())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	cfg := &Config{Path: "/nonexistent/credprune.yaml", Explicit: true}

	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_EnvironmentDoesNotOverrideFile(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "env-tenant")
	path := writeConfig(t, "directory:\n  tenant_id: file-tenant\n")

	cfg := &Config{Path: path, Explicit: true}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "file-tenant", cfg.Definition.Directory.TenantID)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("directory:\n  auth: [[[\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML syntax")
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown top-level key", "providers: {}\n"},
		{"unknown directory key", "directory:\n  vault_url: https://x\n"},
		{"bad auth", "directory:\n  auth: kerberos\n"},
		{"bad version", "version: 2\n"},
		{"bad timeout", "directory:\n  timeout: soon\n"},
		{"empty column", "input:\n  app_id_column: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation failed")
		})
	}
}

func TestParse_Empty(t *testing.T) {
	def, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, AuthDefault, def.Directory.Auth)
}

func TestDirectoryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DirectoryConfig
		wantErr string
	}{
		{"default", DirectoryConfig{Auth: AuthDefault, Timeout: "30s"}, ""},
		{"cli", DirectoryConfig{Auth: AuthCLI, Timeout: "30s"}, ""},
		{"managed identity", DirectoryConfig{Auth: AuthManagedIdentity, Timeout: "1m"}, ""},
		{"client secret complete", DirectoryConfig{Auth: AuthClientSecret, TenantID: "t", ClientID: "c", Timeout: "30s"}, ""},
		{"client secret missing ids", DirectoryConfig{Auth: AuthClientSecret, Timeout: "30s"}, "tenant_id and client_id"},
		{"unknown auth", DirectoryConfig{Auth: "saml", Timeout: "30s"}, "unsupported authentication method"},
		{"bad timeout", DirectoryConfig{Auth: AuthDefault, Timeout: "later"}, "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequestTimeout_FallsBack(t *testing.T) {
	assert.Equal(t, DefaultTimeout, DirectoryConfig{Timeout: "nope"}.RequestTimeout())
	assert.Equal(t, DefaultTimeout, DirectoryConfig{Timeout: "-5s"}.RequestTimeout())
	assert.Equal(t, 2*time.Minute, DirectoryConfig{Timeout: "2m"}.RequestTimeout())
}
