// Package processor hosts the workers that drive the kernel's cores. Every
// worker owns one CPU and runs its dispatch loop until shutdown.
package processor
