// Package eventstore records publish runs as an append-only event log and
// folds it into a build history.
package eventstore
