package revoke_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/credprune/internal/directory"
	"github.com/systmms/credprune/internal/logging"
	"github.com/systmms/credprune/internal/revoke"
	"github.com/systmms/credprune/tests/fakes"
	"github.com/systmms/credprune/tests/testutil"
)

func kinds(res *revoke.BatchResult) []revoke.OutcomeKind {
	out := make([]revoke.OutcomeKind, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		out = append(out, o.Kind)
	}
	return out
}

func TestRunner_MixedBatch(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().
		WithApplication("obj-1", "a1", "Billing API", secretA, secretB).
		WithApplication("obj-2", "a2", "Reports", secretC)
	console := testutil.NewTestLogger(t)
	runner := revoke.NewRunner(fake, revoke.WithLogger(console.Logger))

	requests := []revoke.RemovalRequest{
		{Line: 2, AppID: "a1", SecretID: secretA},
		{Line: 3, AppID: "a1", SecretID: "xyz"},
		{Line: 4, AppID: "missing", SecretID: secretB},
		{Line: 5, AppID: "a2", SecretID: secretA},
		{Line: 6, AppID: "a2", SecretID: secretC},
	}
	res := runner.Run(context.Background(), requests)

	require.Len(t, res.Outcomes, len(requests))
	for i, o := range res.Outcomes {
		assert.Equal(t, requests[i], o.Request, "outcome %d out of order", i)
	}
	assert.Equal(t, []revoke.OutcomeKind{
		revoke.RemovalSucceeded,
		revoke.InvalidIdentifier,
		revoke.ApplicationNotFound,
		revoke.SecretNotFound,
		revoke.RemovalSucceeded,
	}, kinds(res))
	assert.Equal(t, 2, res.Count(revoke.RemovalSucceeded))
	assert.Equal(t, 5, res.Total())
	assert.False(t, res.Interrupted)
	assert.True(t, res.HasActionable())

	assert.Equal(t, []string{secretB}, fake.Secrets("obj-1"))
	assert.Empty(t, fake.Secrets("obj-2"))

	text := console.GetOutput()
	assert.Contains(t, text, "row 1: removed secret "+secretA+" (secret-1) from application a1 (Billing API)")
	assert.Contains(t, text, "row 2: InvalidIdentifier")
	assert.Contains(t, text, "row 3: ApplicationNotFound")
	assert.Contains(t, text, "row 4: SecretNotFound")
}

func TestRunner_EmptyBatch(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient()
	console := testutil.NewTestLogger(t)
	res := revoke.NewRunner(fake, revoke.WithLogger(console.Logger)).Run(context.Background(), nil)

	assert.Zero(t, res.Total())
	assert.Empty(t, fake.Calls())
	assert.Empty(t, console.GetOutput())
}

func TestRunner_SecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().WithApplication("obj-1", "a1", "App", secretA)
	console := testutil.NewTestLogger(t)
	runner := revoke.NewRunner(fake, revoke.WithLogger(console.Logger))
	requests := []revoke.RemovalRequest{{AppID: "a1", SecretID: secretA}}

	first := runner.Run(context.Background(), requests)
	second := runner.Run(context.Background(), requests)

	assert.Equal(t, []revoke.OutcomeKind{revoke.RemovalSucceeded}, kinds(first))
	assert.Equal(t, []revoke.OutcomeKind{revoke.SecretNotFound}, kinds(second))
	assert.Equal(t, 1, fake.CallCount(fakes.CallRemovePasswordCredential))
}

func TestRunner_FailureDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().
		WithApplication("obj-1", "a1", "Locked", secretA).
		WithApplication("obj-2", "a2", "Open", secretB).
		WithRemoveError("obj-1", errors.New("Authorization_RequestDenied: Insufficient privileges"))
	console := testutil.NewTestLogger(t)
	runner := revoke.NewRunner(fake, revoke.WithLogger(console.Logger))

	res := runner.Run(context.Background(), []revoke.RemovalRequest{
		{AppID: "a1", SecretID: secretA},
		{AppID: "a2", SecretID: secretB},
	})

	assert.Equal(t, []revoke.OutcomeKind{revoke.RemovalFailed, revoke.RemovalSucceeded}, kinds(res))
	assert.Contains(t, console.GetOutput(), "Insufficient privileges")
}

func TestRunner_DuplicateRows(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().WithApplication("obj-1", "a1", "App", secretA)
	console := testutil.NewTestLogger(t)
	res := revoke.NewRunner(fake, revoke.WithLogger(console.Logger)).Run(context.Background(), []revoke.RemovalRequest{
		{AppID: "a1", SecretID: secretA},
		{AppID: "a1", SecretID: strings.ToUpper(secretA)},
	})

	assert.Equal(t, []revoke.OutcomeKind{revoke.RemovalSucceeded, revoke.SecretNotFound}, kinds(res))
}

func TestRunner_DryRun(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().WithApplication("obj-1", "a1", "App", secretA)
	console := testutil.NewTestLogger(t)
	res := revoke.NewRunner(fake,
		revoke.WithDryRun(true),
		revoke.WithLogger(console.Logger),
	).Run(context.Background(), []revoke.RemovalRequest{
		{AppID: "a1", SecretID: secretA},
		{AppID: "a1", SecretID: secretB},
	})

	assert.True(t, res.DryRun)
	assert.Equal(t, []revoke.OutcomeKind{revoke.RemovalSkipped, revoke.SecretNotFound}, kinds(res))
	assert.Zero(t, fake.CallCount(fakes.CallRemovePasswordCredential))
	assert.Contains(t, console.GetOutput(), "dry run, would remove secret")
}

// cancellingClient cancels the batch context once the first removal returns.
type cancellingClient struct {
	directory.Client
	cancel context.CancelFunc
	ctxErr error
}

func (c *cancellingClient) RemovePasswordCredential(ctx context.Context, objectID, keyID string) error {
	c.cancel()
	err := c.Client.RemovePasswordCredential(ctx, objectID, keyID)
	c.ctxErr = ctx.Err()
	return err
}

func TestRunner_InterruptFinishesCurrentRow(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().
		WithApplication("obj-1", "a1", "App", secretA, secretB, secretC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &cancellingClient{Client: fake, cancel: cancel}

	console := testutil.NewTestLogger(t)
	res := revoke.NewRunner(client, revoke.WithLogger(console.Logger)).Run(ctx, []revoke.RemovalRequest{
		{AppID: "a1", SecretID: secretA},
		{AppID: "a1", SecretID: secretB},
		{AppID: "a1", SecretID: secretC},
	})

	assert.NoError(t, client.ctxErr, "in-flight row must not observe cancellation")
	assert.True(t, res.Interrupted)
	assert.Equal(t, []revoke.OutcomeKind{
		revoke.RemovalSucceeded,
		revoke.NotAttempted,
		revoke.NotAttempted,
	}, kinds(res))
	assert.Equal(t, 1, fake.CallCount(fakes.CallFindApplication))
	assert.Equal(t, []string{secretB, secretC}, fake.Secrets("obj-1"))
}

func TestRunner_AuditLog(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().WithApplication("obj-1", "a1", "App", secretA)
	console := testutil.NewTestLogger(t)
	var audit bytes.Buffer
	runner := revoke.NewRunner(fake,
		revoke.WithLogger(console.Logger),
		revoke.WithAuditLogger(logging.NewAuditLoggerTo(&audit)),
	)

	runner.Run(context.Background(), []revoke.RemovalRequest{
		{Line: 2, AppID: "a1", SecretID: secretA},
		{Line: 3, AppID: "a1", SecretID: "bad"},
	})

	var records []map[string]interface{}
	scanner := bufio.NewScanner(&audit)
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	assert.Equal(t, "row", records[0]["msg"])
	assert.Equal(t, "RemovalSucceeded", records[0]["outcome"])
	assert.Equal(t, "obj-1", records[0]["app_object_id"])
	assert.Equal(t, float64(2), records[0]["line"])
	assert.Equal(t, "InvalidIdentifier", records[1]["outcome"])

	assert.Equal(t, "summary", records[2]["msg"])
	assert.Equal(t, float64(2), records[2]["total"])
	assert.Equal(t, float64(1), records[2]["RemovalSucceeded"])
	assert.Equal(t, float64(1), records[2]["InvalidIdentifier"])
}

func TestRunner_Metrics(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeDirectoryClient().WithApplication("obj-1", "a1", "App", secretA, secretB)
	metrics := revoke.NewMetrics()
	console := testutil.NewTestLogger(t)
	runner := revoke.NewRunner(fake,
		revoke.WithLogger(console.Logger),
		revoke.WithMetrics(metrics),
	)

	runner.Run(context.Background(), []revoke.RemovalRequest{
		{AppID: "a1", SecretID: secretA},
		{AppID: "a1", SecretID: secretB},
		{AppID: "zz", SecretID: secretC},
	})

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)

	path := filepath.Join(t.TempDir(), "credprune.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `credprune_rows_total{outcome="RemovalSucceeded"} 2`)
	assert.Contains(t, text, `credprune_rows_total{outcome="ApplicationNotFound"} 1`)
	assert.Contains(t, text, `credprune_rows_total{outcome="RemovalFailed"} 0`)
	assert.Contains(t, text, "credprune_batch_last_completion_timestamp_seconds")
}

func TestMetrics_WriteTextfileBadPath(t *testing.T) {
	t.Parallel()

	err := revoke.NewMetrics().WriteTextfile(filepath.Join(t.TempDir(), "missing", "out.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics")
}
