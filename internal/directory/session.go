package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/systmms/credprune/internal/config"
	"github.com/systmms/credprune/internal/logging"
)

// Session is an authenticated directory session. Acquire it with Open before
// a batch starts and always Close it afterwards.
type Session struct {
	client Client

	closeOnce sync.Once
	onClose   func()
}

// SessionOption customises Open.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	credential azcore.TokenCredential
	adapter    abstractions.RequestAdapter
	logger     *logging.Logger
}

// WithCredential uses cred instead of building one from configuration.
func WithCredential(cred azcore.TokenCredential) SessionOption {
	return func(o *sessionOptions) {
		o.credential = cred
	}
}

// WithRequestAdapter routes Graph calls through adapter (for testing).
func WithRequestAdapter(adapter abstractions.RequestAdapter) SessionOption {
	return func(o *sessionOptions) {
		o.adapter = adapter
	}
}

// WithLogger attaches a console logger for session diagnostics.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// Open authenticates against the directory. A token is requested up front
// so an unusable credential fails here rather than on the first row.
func Open(ctx context.Context, cfg config.DirectoryConfig, opts ...SessionOption) (*Session, error) {
	o := &sessionOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New(false, true)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cred := o.credential
	if cred == nil {
		var err error
		cred, err = createCredential(cfg, o.logger)
		if err != nil {
			return nil, err
		}
	}

	o.logger.Debug("Requesting directory token (auth=%s, tenant=%s, scopes=%v)", cfg.Auth, cfg.TenantID, cfg.Scopes)

	tokenCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()
	if _, err := cred.GetToken(tokenCtx, policy.TokenRequestOptions{Scopes: cfg.Scopes}); err != nil {
		return nil, fmt.Errorf("failed to acquire directory token: %w", err)
	}

	var graph *msgraphsdk.GraphServiceClient
	if o.adapter != nil {
		graph = msgraphsdk.NewGraphServiceClient(o.adapter)
	} else {
		var err error
		graph, err = msgraphsdk.NewGraphServiceClientWithCredentials(cred, cfg.Scopes)
		if err != nil {
			return nil, fmt.Errorf("failed to create Graph client: %w", err)
		}
	}

	logger := o.logger
	return &Session{
		client: NewGraphClient(graph, cfg.RequestTimeout()),
		onClose: func() {
			logger.Debug("Directory session released")
		},
	}, nil
}

// NewSession wraps an existing client, e.g. a fake in tests.
func NewSession(client Client, onClose func()) *Session {
	return &Session{client: client, onClose: onClose}
}

// Client returns the session's directory client.
func (s *Session) Client() Client {
	return s.client
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}
