// Package storage persists task collections to a JSON file with an
// atomic write path, defensive loading, and a lock usable from both
// blocking and context-aware call sites.
package storage
