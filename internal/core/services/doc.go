// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The sync tracker records every job as an attempt. The walkers drive
// paginated discovery and incremental syncs, and the remaining services
// compose the two into watch, list, popular, metadata and queue jobs.
package services
