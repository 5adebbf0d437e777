package revoke

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeKind_String(t *testing.T) {
	t.Parallel()

	for _, kind := range OutcomeKinds {
		assert.NotContains(t, kind.String(), "OutcomeKind(")
	}
	assert.Equal(t, "OutcomeKind(99)", OutcomeKind(99).String())
}

func TestOutcomeKind_MarshalText(t *testing.T) {
	t.Parallel()

	text, err := SecretNotFound.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SecretNotFound", string(text))
}

func TestOutcomeKind_Actionable(t *testing.T) {
	t.Parallel()

	assert.True(t, RemovalFailed.Actionable())
	assert.True(t, LookupFailed.Actionable())
	assert.False(t, SecretNotFound.Actionable())
	assert.False(t, ApplicationNotFound.Actionable())
	assert.False(t, RemovalSucceeded.Actionable())
}

func TestBatchResult_JSON(t *testing.T) {
	t.Parallel()

	res := newBatchResult(2, false)
	res.add(RowOutcome{Request: RemovalRequest{AppID: "a1"}, Kind: RemovalSucceeded})
	res.add(RowOutcome{Request: RemovalRequest{AppID: "a2"}, Kind: RemovalFailed, Reason: "denied"})
	res.Duration = 1500 * time.Millisecond

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(2), decoded["total"])
	assert.Equal(t, 1.5, decoded["duration_seconds"])
	assert.Equal(t, map[string]interface{}{"RemovalSucceeded": float64(1), "RemovalFailed": float64(1)}, decoded["counts"])

	outcomes := decoded["outcomes"].([]interface{})
	second := outcomes[1].(map[string]interface{})
	assert.Equal(t, "RemovalFailed", second["outcome"])
	assert.Equal(t, "denied", second["reason"])
	assert.True(t, res.HasActionable())
}

func TestBatchResult_WriteSummary(t *testing.T) {
	t.Parallel()

	res := newBatchResult(3, true)
	res.add(RowOutcome{Kind: RemovalSkipped})
	res.add(RowOutcome{Kind: SecretNotFound})
	res.add(RowOutcome{Kind: SecretNotFound})

	var buf bytes.Buffer
	require.NoError(t, res.WriteSummary(&buf))

	out := buf.String()
	assert.Contains(t, out, "Summary (dry run): 3 row(s)")
	assert.Contains(t, out, "RemovalSucceeded  0")
	assert.Contains(t, out, "SecretNotFound    2")
	assert.NotContains(t, out, "RemovalFailed")
	assert.False(t, res.HasActionable())
	assert.Contains(t, out, "No rows need follow-up.")
}

func TestBatchResult_WriteSummaryFlagsFollowUp(t *testing.T) {
	t.Parallel()

	res := newBatchResult(2, false)
	res.add(RowOutcome{Kind: RemovalSucceeded})
	res.add(RowOutcome{Kind: RemovalFailed, Reason: "denied"})

	var buf bytes.Buffer
	require.NoError(t, res.WriteSummary(&buf))

	assert.Contains(t, buf.String(), "Some rows need follow-up")
	assert.NotContains(t, buf.String(), "No rows need follow-up.")
}
