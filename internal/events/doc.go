// Package events provides types and interfaces for dispatching post-commit
// side effects.
//
// Lifecycle services compose the side effects of a status change inside
// their transaction, then emit them only after the transaction commits.
// Handlers translate events into queued jobs (email, file operations) or
// best-effort socket pushes without the services knowing which handlers
// exist.
//
// The primary components are:
// - SideEffectEvent: Represents a requested post-commit side effect
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
