package kernel

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the process core. Callers should use errors.Is
// to test for them because the kernel wraps them with call context.
var (
	// ErrResourceExhausted is returned when no process slot, trapframe or
	// address space can be allocated.
	ErrResourceExhausted = errors.New("kernel: resource exhausted")

	// ErrInvalidArgument is returned for out of range or malformed arguments.
	ErrInvalidArgument = errors.New("kernel: invalid argument")

	// ErrCopyFault is returned when a transfer into or out of user memory fails.
	ErrCopyFault = errors.New("kernel: copy fault")

	// ErrNotFound is returned when a path or a process record does not
	// resolve, and by Wait when there is nothing to wait for.
	ErrNotFound = errors.New("kernel: not found")

	// ErrNoChildren is returned by Wait when the caller has no children. It
	// wraps ErrNotFound.
	ErrNoChildren = fmt.Errorf("kernel: no children: %w", ErrNotFound)

	// ErrKilled is returned by blocking calls interrupted by kill.
	ErrKilled = errors.New("kernel: killed")
)
