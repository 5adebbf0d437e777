package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
	"github.com/systmms/credprune/internal/directory"
	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/logging"
)

// ErrInterrupted is returned when a signal stopped the batch before every
// row was attempted.
var ErrInterrupted = errors.New("batch interrupted")

// sessionOpener establishes the directory session. Tests swap it for one
// backed by a fake client.
type sessionOpener func(ctx context.Context, cfg config.DirectoryConfig, logger *logging.Logger) (*directory.Session, error)

var openSession sessionOpener = func(ctx context.Context, cfg config.DirectoryConfig, logger *logging.Logger) (*directory.Session, error) {
	return directory.Open(ctx, cfg, directory.WithLogger(logger))
}

// directoryFlags override the directory section of the config file.
type directoryFlags struct {
	tenantID string
	clientID string
	auth     string
}

func (f *directoryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenantID, "tenant-id", "", "Directory tenant ID (overrides config)")
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "Application (client) ID used to sign in (overrides config)")
	cmd.Flags().StringVar(&f.auth, "auth", "", "Authentication method: default, client_secret, managed_identity, cli")
}

func (f directoryFlags) apply(d *config.DirectoryConfig) {
	if f.tenantID != "" {
		d.TenantID = f.tenantID
	}
	if f.clientID != "" {
		d.ClientID = f.clientID
	}
	if f.auth != "" {
		d.Auth = f.auth
	}
}

func loggerFor(cfg *config.Config) *logging.Logger {
	if cfg.Logger == nil {
		cfg.Logger = logging.New(false, false)
	}
	return cfg.Logger
}

// loadDefinition loads the config file and applies flag overrides.
func loadDefinition(cfg *config.Config, flags directoryFlags) (*config.Definition, error) {
	if err := cfg.Load(); err != nil {
		return nil, dserrors.SetupError{Stage: dserrors.StageConfig, Err: err}
	}
	flags.apply(&cfg.Definition.Directory)
	return cfg.Definition, nil
}

// startSession opens the directory session, wrapping failures with a hint.
func startSession(ctx context.Context, cfg *config.Config, def *config.Definition) (*directory.Session, error) {
	logger := loggerFor(cfg)
	logger.Debug("Opening directory session (auth=%s)", def.Directory.Auth)

	sess, err := openSession(ctx, def.Directory, logger)
	if err != nil {
		var ce dserrors.ConfigError
		if errors.As(err, &ce) {
			return nil, dserrors.SetupError{Stage: dserrors.StageConfig, Err: err}
		}
		return nil, dserrors.SetupError{
			Stage: dserrors.StageSession,
			Err:   dserrors.DirectoryError("session setup", err),
		}
	}
	return sess, nil
}
