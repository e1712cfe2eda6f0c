package kernel

import (
	"context"

	"github.com/viant/kproc/model/proc"
)

// Space is an opaque user address space handle
type Space interface{}

// File is an opaque open file handle
type File interface{}

// Inode is an opaque directory or file reference
type Inode interface{}

// Memory manages user address spaces and trapframe storage
type Memory interface {
	// Create returns an empty address space
	Create() (Space, error)
	// Copy duplicates size bytes of src into dst
	Copy(src, dst Space, size uint64) error
	// Grow resizes space from oldSize to newSize bytes and returns the new size
	Grow(space Space, oldSize, newSize uint64) (uint64, error)
	// Free releases the address space
	Free(space Space, size uint64)
	// CopyOut writes data to user address addr
	CopyOut(space Space, addr uint64, data []byte) error
	// CopyIn reads len(data) bytes from user address addr
	CopyIn(space Space, addr uint64, data []byte) error
	// NewFrame allocates a trapframe
	NewFrame() (*proc.Trapframe, error)
	// FreeFrame releases a trapframe
	FreeFrame(tf *proc.Trapframe)
}

// FileSystem resolves paths and reference counts files and inodes
type FileSystem interface {
	Namei(ctx context.Context, path string) (Inode, error)
	Idup(ip Inode) Inode
	Iput(ip Inode)
	Open(ctx context.Context, path string) (File, error)
	Dup(f File) File
	Close(f File)
}
