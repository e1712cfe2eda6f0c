// Package vm defines errors shared by address space implementations. The
// memory sub-package provides a paged in-memory implementation of the
// kernel Memory collaborator.
package vm

import "errors"

var (
	// ErrOutOfMemory is returned when the page budget is exhausted.
	ErrOutOfMemory = errors.New("vm: out of memory")

	// ErrBadAddress is returned for accesses outside the mapped user range.
	ErrBadAddress = errors.New("vm: bad address")

	// ErrBadSpace is returned when a handle does not belong to the implementation.
	ErrBadSpace = errors.New("vm: bad address space")
)
