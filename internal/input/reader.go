// Package input reads removal requests from a CSV file with a header row.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/systmms/credprune/internal/config"
	dserrors "github.com/systmms/credprune/internal/errors"
	"github.com/systmms/credprune/internal/revoke"
)

const utf8BOM = "\ufeff"

// Columns names the header fields holding the application and secret ids.
// Matching is case-insensitive.
type Columns struct {
	AppID    string
	SecretID string
}

// ColumnsFrom returns the columns configured in cfg, falling back to defaults.
func ColumnsFrom(cfg config.InputConfig) Columns {
	cols := Columns{AppID: cfg.AppIDColumn, SecretID: cfg.SecretIDColumn}
	if cols.AppID == "" {
		cols.AppID = config.DefaultAppIDColumn
	}
	if cols.SecretID == "" {
		cols.SecretID = config.DefaultSecretIDColumn
	}
	return cols
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, cols Columns) ([]revoke.RemovalRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("input file not found: %s", path),
				Suggestion: "Check the --input path",
				Err:        err,
			}
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reqs, err := Read(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Read parses CSV records from r. The first record is the header. Every
// field is trimmed. Each record becomes a request, including ones whose
// fields are all blank, so every row gets an outcome; only empty lines
// produce no record. A file with no records at all yields zero requests.
func Read(r io.Reader, cols Columns) ([]revoke.RemovalRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []revoke.RemovalRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	appIdx, secretIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case strings.EqualFold(name, cols.AppID) && appIdx < 0:
			appIdx = i
		case strings.EqualFold(name, cols.SecretID) && secretIdx < 0:
			secretIdx = i
		}
	}
	var missing []string
	if appIdx < 0 {
		missing = append(missing, cols.AppID)
	}
	if secretIdx < 0 {
		missing = append(missing, cols.SecretID)
	}
	if len(missing) > 0 {
		return nil, dserrors.UserError{
			Message:    fmt.Sprintf("input header is missing column(s): %s", strings.Join(missing, ", ")),
			Details:    fmt.Sprintf("found columns: %s", strings.Join(header, ", ")),
			Suggestion: "Rename the header or set input.app_id_column / input.secret_id_column in credprune.yaml",
		}
	}

	reqs := []revoke.RemovalRequest{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		line, _ := cr.FieldPos(0)
		reqs = append(reqs, revoke.RemovalRequest{
			Line:     line,
			AppID:    field(record, appIdx),
			SecretID: field(record, secretIdx),
		})
	}
	return reqs, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
