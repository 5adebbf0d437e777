package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/applications"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
)

const graphNotFoundCode = "Request_ResourceNotFound"

// GraphError carries the service error code and message returned by
// Microsoft Graph for a failed call.
type GraphError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *GraphError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// Is lets a Graph "resource not found" match ErrApplicationNotFound.
func (e *GraphError) Is(target error) bool {
	return target == ErrApplicationNotFound && (e.Code == graphNotFoundCode || e.StatusCode == 404)
}

func wrapGraphError(op string, err error) error {
	gerr := &GraphError{Op: op, Err: err}

	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		gerr.StatusCode = odataErr.ResponseStatusCode
		if main := odataErr.GetErrorEscaped(); main != nil {
			gerr.Code = deref(main.GetCode())
			gerr.Message = deref(main.GetMessage())
		}
	}
	return gerr
}

// GraphClient implements Client on top of the Microsoft Graph SDK.
type GraphClient struct {
	graph   *msgraphsdk.GraphServiceClient
	timeout time.Duration
}

// NewGraphClient wraps a Graph service client. Every call is bounded by
// timeout when it is positive.
func NewGraphClient(graph *msgraphsdk.GraphServiceClient, timeout time.Duration) *GraphClient {
	return &GraphClient{
		graph:   graph,
		timeout: timeout,
	}
}

func (c *GraphClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// FindApplication implements Client.
func (c *GraphClient) FindApplication(ctx context.Context, appID string) (*ApplicationRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	filter := fmt.Sprintf("appId eq '%s'", escapeODataString(appID))
	resp, err := c.graph.Applications().Get(ctx, &applications.ApplicationsRequestBuilderGetRequestConfiguration{
		QueryParameters: &applications.ApplicationsRequestBuilderGetQueryParameters{
			Filter: &filter,
			Select: []string{"id", "appId", "displayName", "passwordCredentials"},
		},
	})
	if err != nil {
		return nil, wrapGraphError("find application", err)
	}

	apps := resp.GetValue()
	switch len(apps) {
	case 0:
		return nil, ErrApplicationNotFound
	case 1:
		return toApplicationRecord(apps[0]), nil
	default:
		return nil, &AmbiguousApplicationError{AppID: appID, Matches: len(apps)}
	}
}

// ListPasswordCredentials implements Client.
func (c *GraphClient) ListPasswordCredentials(ctx context.Context, objectID string) ([]PasswordCredential, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	app, err := c.graph.Applications().ByApplicationId(objectID).Get(ctx, &applications.ApplicationItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &applications.ApplicationItemRequestBuilderGetQueryParameters{
			Select: []string{"id", "passwordCredentials"},
		},
	})
	if err != nil {
		return nil, wrapGraphError("list password credentials", err)
	}
	return toPasswordCredentials(app.GetPasswordCredentials()), nil
}

// RemovePasswordCredential implements Client.
func (c *GraphClient) RemovePasswordCredential(ctx context.Context, objectID, keyID string) error {
	id, err := uuid.Parse(keyID)
	if err != nil {
		return fmt.Errorf("invalid key id %q: %w", keyID, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body := applications.NewItemRemovePasswordPostRequestBody()
	body.SetKeyId(&id)
	if err := c.graph.Applications().ByApplicationId(objectID).RemovePassword().Post(ctx, body, nil); err != nil {
		return wrapGraphError("remove password credential", err)
	}
	return nil
}

func toApplicationRecord(app models.Applicationable) *ApplicationRecord {
	return &ApplicationRecord{
		ObjectID:            deref(app.GetId()),
		AppID:               deref(app.GetAppId()),
		DisplayName:         deref(app.GetDisplayName()),
		PasswordCredentials: toPasswordCredentials(app.GetPasswordCredentials()),
	}
}

func toPasswordCredentials(creds []models.PasswordCredentialable) []PasswordCredential {
	out := make([]PasswordCredential, 0, len(creds))
	for _, cred := range creds {
		if cred == nil {
			continue
		}
		pc := PasswordCredential{
			DisplayName:   deref(cred.GetDisplayName()),
			Hint:          deref(cred.GetHint()),
			StartDateTime: cred.GetStartDateTime(),
			EndDateTime:   cred.GetEndDateTime(),
		}
		if id := cred.GetKeyId(); id != nil {
			pc.KeyID = id.String()
		}
		out = append(out, pc)
	}
	return out
}

// escapeODataString doubles single quotes inside an OData string literal.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
