// Package jobs implements the DB-backed background queue for email
// delivery and object storage operations.
//
// Jobs are persisted before they are queued in memory, giving the queue
// at-least-once semantics: pending and interrupted jobs are requeued on
// startup, and a monitor resets jobs stuck in the processing state. The
// QueueEventHandler bridges the events package to the runner so lifecycle
// services never import this package directly.
package jobs
