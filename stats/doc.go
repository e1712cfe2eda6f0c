// Package stats keeps aggregated process lifecycle counters for one boot,
// fed by kernel events consumed from the event queue.
package stats
