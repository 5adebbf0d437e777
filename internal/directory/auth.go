package directory

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/systmms/credprune/internal/config"
	"github.com/systmms/credprune/internal/logging"
	"github.com/systmms/credprune/internal/secure"
	"github.com/zalando/go-keyring"
)

// resolveClientSecret finds the client secret in order: literal config value,
// environment variable, OS keyring (service = keyring_service, account =
// client_id). The result is sealed immediately.
func resolveClientSecret(cfg config.DirectoryConfig) (*secure.SecureBuffer, error) {
	if cfg.ClientSecret != "" {
		return secure.NewSecureString(cfg.ClientSecret), nil
	}

	if cfg.ClientSecretEnv != "" {
		if v := os.Getenv(cfg.ClientSecretEnv); v != "" {
			return secure.NewSecureString(v), nil
		}
	}

	if cfg.KeyringService != "" {
		v, err := keyring.Get(cfg.KeyringService, cfg.ClientID)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no client secret stored in keyring service %q for client %q", cfg.KeyringService, cfg.ClientID)
			}
			return nil, fmt.Errorf("failed to read client secret from keyring: %w", err)
		}
		return secure.NewSecureString(v), nil
	}

	return nil, fmt.Errorf("no client secret configured: set directory.client_secret, $%s, or directory.keyring_service", cfg.ClientSecretEnv)
}

// newClientSecretCredential is swapped in tests to observe the secret handed
// to azidentity.
var newClientSecretCredential = azidentity.NewClientSecretCredential

// createCredential creates an Azure credential for the configured auth method
func createCredential(cfg config.DirectoryConfig, logger *logging.Logger) (azcore.TokenCredential, error) {
	var cred azcore.TokenCredential
	var err error

	switch cfg.Auth {
	case config.AuthManagedIdentity:
		opts := &azidentity.ManagedIdentityCredentialOptions{}
		if cfg.UserAssignedID != "" {
			opts.ID = azidentity.ClientID(cfg.UserAssignedID)
		}
		cred, err = azidentity.NewManagedIdentityCredential(opts)

	case config.AuthClientSecret:
		if cfg.TenantID == "" || cfg.ClientID == "" {
			return nil, fmt.Errorf("tenant_id and client_id are required for client secret authentication")
		}
		secret, serr := resolveClientSecret(cfg)
		if serr != nil {
			return nil, serr
		}
		defer secret.Destroy()

		err = secret.WithString(func(s string) error {
			logger.Debug("Using client secret %s for client %s", logging.Secret(s), cfg.ClientID)
			// The credential keeps the secret for every token refresh, so it
			// needs a heap copy that survives the locked buffer.
			var cerr error
			cred, cerr = newClientSecretCredential(cfg.TenantID, cfg.ClientID, strings.Clone(s), nil)
			if cerr != nil {
				return errors.New(logging.Redact(cerr.Error(), []string{s}))
			}
			return nil
		})

	case config.AuthCLI:
		cred, err = azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: cfg.TenantID,
		})

	default:
		cred, err = azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: cfg.TenantID,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, nil
}
