package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the operator with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// Setup stages. A SetupError always aborts before the first row is processed.
const (
	StageConfig  = "config"
	StageInput   = "input"
	StageSession = "session"
)

// SetupError is a fatal failure that prevents the batch from starting.
type SetupError struct {
	Stage string
	Err   error
}

func (e SetupError) Error() string {
	return fmt.Sprintf("%s setup failed: %v", e.Stage, e.Err)
}

func (e SetupError) Unwrap() error {
	return e.Err
}

// IsSetupError reports whether err is, or wraps, a SetupError.
func IsSetupError(err error) bool {
	var se SetupError
	return errors.As(err, &se)
}

// DirectoryError enhances a directory service error with context
func DirectoryError(operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("directory error during %s", operation),
		Details:    err.Error(),
		Suggestion: DirectorySuggestion(err),
		Err:        err,
	}
}

// DirectorySuggestion returns a hint for common directory service failures
func DirectorySuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "authorization_requestdenied") || strings.Contains(errStr, "insufficient privileges"):
		return "Grant the Application.ReadWrite.All (or Application.ReadWrite.OwnedBy) permission and admin consent"
	case strings.Contains(errStr, "invalidauthenticationtoken") || strings.Contains(errStr, "expired"):
		return "Re-authenticate: run 'az login' or refresh the configured client secret"
	case strings.Contains(errStr, "aadsts7000215") || strings.Contains(errStr, "invalid_client"):
		return "Check the client ID and client secret configured for the directory session"
	case strings.Contains(errStr, "aadsts90002") || strings.Contains(errStr, "tenant"):
		return "Check that the tenant ID is correct"
	case strings.Contains(errStr, "throttl") || strings.Contains(errStr, "too many requests"):
		return "The directory service is throttling requests. Re-run the batch later; completed rows are skipped as not found"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		return "The request timed out. Check network connectivity or raise directory.timeout"
	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "connection refused"):
		return "Unable to reach the directory service. Check your network and proxy settings"
	}

	return ""
}

// SimplifyError simplifies complex error messages for operators
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Keep the stage, simplify what failed inside it
	var se SetupError
	if errors.As(err, &se) {
		return SetupError{Stage: se.Stage, Err: SimplifyError(se.Err)}
	}

	// Already a user-friendly error
	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return err
	}

	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
