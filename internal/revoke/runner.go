package revoke

import (
	"context"
	"time"

	"github.com/systmms/credprune/internal/directory"
	"github.com/systmms/credprune/internal/logging"
	"go.uber.org/zap"
)

// Runner drives a batch of requests through a Processor, one row at a time.
type Runner struct {
	processor *Processor
	logger    *logging.Logger
	audit     *zap.Logger
	metrics   *Metrics
	dryRun    bool
	now       func() time.Time
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithDryRun resolves rows without removing anything.
func WithDryRun(dryRun bool) RunnerOption {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithLogger sets the console logger for per-row status lines.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithAuditLogger writes one structured record per row.
func WithAuditLogger(audit *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.audit = audit
	}
}

// WithMetrics records outcome counters.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner returns a Runner over client.
func NewRunner(client directory.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: logging.New(false, true),
		audit:  zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.processor = NewProcessor(client, r.dryRun)
	return r
}

// Run processes requests strictly in order and returns one outcome per
// request. A row in progress always completes; cancelling ctx only stops
// further rows from starting, and those rows are reported as NotAttempted.
func (r *Runner) Run(ctx context.Context, requests []RemovalRequest) *BatchResult {
	start := r.now()
	res := newBatchResult(len(requests), r.dryRun)

	rowCtx := context.WithoutCancel(ctx)
	for i, req := range requests {
		var out RowOutcome
		if ctx.Err() != nil {
			res.Interrupted = true
			out = RowOutcome{Request: req, Kind: NotAttempted, Reason: "batch interrupted before this row"}
		} else {
			out = r.processor.Process(rowCtx, req)
		}

		res.add(out)
		r.report(i+1, out)
	}

	res.Duration = r.now().Sub(start)
	r.summarize(res)
	return res
}

func (r *Runner) report(row int, out RowOutcome) {
	if r.metrics != nil {
		r.metrics.observeRow(out.Kind)
	}

	r.audit.Info("row",
		zap.Int("row", row),
		zap.Int("line", out.Request.Line),
		zap.String("app_id", out.Request.AppID),
		zap.String("secret_id", out.Request.SecretID),
		zap.Stringer("outcome", out.Kind),
		zap.String("reason", out.Reason),
		zap.String("app_object_id", out.AppObjectID),
		zap.String("secret_name", out.SecretName),
		zap.Bool("dry_run", r.dryRun),
	)

	app := out.Request.AppID
	if out.AppDisplayName != "" {
		app = app + " (" + out.AppDisplayName + ")"
	}
	secret := out.Request.SecretID
	if out.SecretName != "" {
		secret = secret + " (" + out.SecretName + ")"
	}

	switch out.Kind {
	case RemovalSucceeded:
		r.logger.Info("row %d: removed secret %s from application %s", row, secret, app)
	case RemovalSkipped:
		r.logger.Info("row %d: dry run, would remove secret %s from application %s", row, secret, app)
	case InvalidIdentifier:
		r.logger.Warn("row %d: %s: application %s, secret %q is not a valid identifier", row, out.Kind, app, out.Request.SecretID)
	case ApplicationNotFound:
		if out.AmbiguousMatches > 1 {
			r.logger.Warn("row %d: %s: application %s matched %d applications, skipping secret %s", row, out.Kind, app, out.AmbiguousMatches, secret)
		} else {
			r.logger.Warn("row %d: %s: application %s, secret %s", row, out.Kind, app, secret)
		}
	case SecretNotFound:
		r.logger.Warn("row %d: %s: application %s has no secret %s", row, out.Kind, app, secret)
	case NotAttempted:
		r.logger.Warn("row %d: %s: application %s, secret %s", row, out.Kind, app, secret)
	case LookupFailed, RemovalFailed:
		r.logger.Error("row %d: %s: application %s, secret %s: %s", row, out.Kind, app, secret, out.Reason)
	}
}

func (r *Runner) summarize(res *BatchResult) {
	if r.metrics != nil {
		r.metrics.observeBatch(res)
	}

	fields := []zap.Field{
		zap.Int("total", res.Total()),
		zap.Bool("dry_run", res.DryRun),
		zap.Bool("interrupted", res.Interrupted),
		zap.Duration("duration", res.Duration),
	}
	for _, kind := range OutcomeKinds {
		fields = append(fields, zap.Int(kind.String(), res.Count(kind)))
	}
	r.audit.Info("summary", fields...)
}
