// Package policy provides the scheduling policies that can drive the kernel
// dispatch loop: strict priority (the default), a round-robin ring and a
// three level feedback queue. The ring and feedback queue disciplines can
// also be run over synthetic workloads with Simulate* to produce execution
// traces.
package policy
