// Package state stores per-user conversation sessions.
//
// A session holds the current flow step and the values collected so far.
// Sessions idle for longer than the configured TTL are dropped, which frees
// the user's single conversation slot.
package state
