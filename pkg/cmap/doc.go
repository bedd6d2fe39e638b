// Package cmap provides a sharded map keyed by string.
//
// Each shard has its own lock, so callers touching different keys rarely
// contend. Iteration and sweeping lock one shard at a time and therefore
// do not see a consistent snapshot.
package cmap
