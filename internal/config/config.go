package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/logging"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Authentication methods for the directory session
const (
	AuthDefault         = "default"
	AuthClientSecret    = "client_secret"
	AuthManagedIdentity = "managed_identity"
	AuthCLI             = "cli"
)

const (
	DefaultPath            = "credprune.yaml"
	DefaultClientSecretEnv = "CREDPRUNE_CLIENT_SECRET"
	DefaultScope           = "https://graph.microsoft.com/.default"
	DefaultTimeout         = 30 * time.Second
	DefaultAppIDColumn     = "AppId"
	DefaultSecretIDColumn  = "SecretId"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Explicit   bool // Path was set by the operator rather than defaulted
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the credprune.yaml structure
type Definition struct {
	Version   int             `yaml:"version" json:"version"`
	Directory DirectoryConfig `yaml:"directory" json:"directory"`
	Input     InputConfig     `yaml:"input" json:"input"`
}

// DirectoryConfig describes how to establish the directory session
type DirectoryConfig struct {
	TenantID        string   `yaml:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	ClientID        string   `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	Auth            string   `yaml:"auth,omitempty" json:"auth,omitempty"`
	ClientSecret    string   `yaml:"client_secret,omitempty" json:"client_secret,omitempty"`
	ClientSecretEnv string   `yaml:"client_secret_env,omitempty" json:"client_secret_env,omitempty"`
	KeyringService  string   `yaml:"keyring_service,omitempty" json:"keyring_service,omitempty"`
	UserAssignedID  string   `yaml:"user_assigned_id,omitempty" json:"user_assigned_id,omitempty"`
	Scopes          []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
	Timeout         string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// InputConfig names the columns of the removal table
type InputConfig struct {
	AppIDColumn    string `yaml:"app_id_column,omitempty" json:"app_id_column,omitempty"`
	SecretIDColumn string `yaml:"secret_id_column,omitempty" json:"secret_id_column,omitempty"`
}

const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "enum": [0]},
    "directory": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "tenant_id": {"type": "string"},
        "client_id": {"type": "string"},
        "auth": {"type": "string", "enum": ["default", "client_secret", "managed_identity", "cli"]},
        "client_secret": {"type": "string"},
        "client_secret_env": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
        "keyring_service": {"type": "string"},
        "user_assigned_id": {"type": "string"},
        "scopes": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "timeout": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"}
      }
    },
    "input": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "app_id_column": {"type": "string", "minLength": 1},
        "secret_id_column": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// Default returns a Definition with every default applied
func Default() *Definition {
	def := &Definition{}
	def.applyDefaults()
	return def
}

// Load reads and parses the configuration file. A missing file is only an
// error when the operator named it explicitly.
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !c.Explicit {
			def := Default()
			def.applyEnvironment()
			c.Definition = def
			return nil
		}
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path or omit it to use defaults and environment variables",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	def.applyEnvironment()
	c.Definition = def
	return nil
}

// Parse decodes and schema-validates a configuration document
func Parse(data []byte) (*Definition, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "configuration does not match the expected structure",
			Suggestion: err.Error(),
		}
	}
	def.applyDefaults()
	return &def, nil
}

func validateSchema(raw map[string]interface{}) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Compare credprune.yaml against the documented keys under 'directory:' and 'input:'",
		}
	}
	return nil
}

func (d *Definition) applyDefaults() {
	if d.Directory.Auth == "" {
		d.Directory.Auth = AuthDefault
	}
	if d.Directory.ClientSecretEnv == "" {
		d.Directory.ClientSecretEnv = DefaultClientSecretEnv
	}
	if len(d.Directory.Scopes) == 0 {
		d.Directory.Scopes = []string{DefaultScope}
	}
	if d.Directory.Timeout == "" {
		d.Directory.Timeout = DefaultTimeout.String()
	}
	if d.Input.AppIDColumn == "" {
		d.Input.AppIDColumn = DefaultAppIDColumn
	}
	if d.Input.SecretIDColumn == "" {
		d.Input.SecretIDColumn = DefaultSecretIDColumn
	}
}

// applyEnvironment fills blanks from the azidentity environment variables
func (d *Definition) applyEnvironment() {
	if d.Directory.TenantID == "" {
		d.Directory.TenantID = os.Getenv("AZURE_TENANT_ID")
	}
	if d.Directory.ClientID == "" {
		d.Directory.ClientID = os.Getenv("AZURE_CLIENT_ID")
	}
}

// RequestTimeout returns the per-request directory timeout
func (d DirectoryConfig) RequestTimeout() time.Duration {
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil || timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// Validate checks the cross-field requirements of the chosen auth method
func (d DirectoryConfig) Validate() error {
	switch d.Auth {
	case AuthDefault, AuthCLI, AuthManagedIdentity:
	case AuthClientSecret:
		if d.TenantID == "" || d.ClientID == "" {
			return dserrors.ConfigError{
				Field:      "directory.auth",
				Value:      d.Auth,
				Message:    "tenant_id and client_id are required for client secret authentication",
				Suggestion: "Set directory.tenant_id and directory.client_id, or AZURE_TENANT_ID and AZURE_CLIENT_ID",
			}
		}
	default:
		return dserrors.ConfigError{
			Field:      "directory.auth",
			Value:      d.Auth,
			Message:    "unsupported authentication method",
			Suggestion: "Use one of: default, client_secret, managed_identity, cli",
		}
	}

	if _, err := time.ParseDuration(d.Timeout); err != nil {
		return dserrors.ConfigError{
			Field:      "directory.timeout",
			Value:      d.Timeout,
			Message:    "invalid duration",
			Suggestion: "Use a Go duration such as 30s or 2m",
		}
	}
	return nil
}
