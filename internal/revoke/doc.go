// Package revoke removes client secrets from application registrations.
//
// Each input row names an application (by application id) and one of its
// password credentials (by key id). A Processor resolves a single row against
// current directory state and only issues a removal once both the application
// and the credential are confirmed to exist, so re-running a batch is safe:
// secrets removed by an earlier run come back as SecretNotFound.
//
// A Runner drives rows strictly in input order through the Processor and
// collects exactly one RowOutcome per row into a BatchResult. Row-level
// problems never abort the batch; they are outcomes, not errors.
package revoke
