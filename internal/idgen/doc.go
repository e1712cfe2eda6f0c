// Package idgen generates opaque identifiers for boots, events and queue
// messages. Tests replace NewFunc for determinism.
package idgen
