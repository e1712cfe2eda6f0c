package fs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/kproc/runtime/kernel"
)

// ErrNotFound is returned when a path does not resolve
var ErrNotFound = errors.New("fs: not found")

// Inode is a reference counted path handle
type Inode struct {
	URL  string
	Dir  bool
	refs int
}

// File is a reference counted open file
type File struct {
	Inode *Inode
	refs  int
}

// Service resolves kernel paths against an afs root URL and keeps the
// in-memory inode and open file tables.
type Service struct {
	fs     afs.Service
	root   string
	mu     sync.Mutex
	inodes map[string]*Inode
	files  map[*File]bool
}

// New creates a file system rooted at root, creating the root folder when
// missing.
func New(ctx context.Context, fs afs.Service, root string) (*Service, error) {
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	root = url.Normalize(root, file.Scheme)
	exists, _ := fs.Exists(ctx, root)
	if !exists {
		if err := fs.Create(ctx, root, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create root %v: %w", root, err)
		}
	}
	return &Service{
		fs:     fs,
		root:   root,
		inodes: map[string]*Inode{},
		files:  map[*File]bool{},
	}, nil
}

// Root returns the root URL
func (s *Service) Root() string { return s.root }

func (s *Service) resolve(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return s.root
	}
	return url.Join(s.root, path)
}

// Namei looks up path, relative to the root
func (s *Service) Namei(ctx context.Context, path string) (kernel.Inode, error) {
	ip, err := s.namei(ctx, path)
	if err != nil {
		return nil, err
	}
	return ip, nil
}

func (s *Service) namei(ctx context.Context, path string) (*Inode, error) {
	URL := s.resolve(path)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check %v: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%v: %w", path, ErrNotFound)
	}
	isDir := URL == s.root
	if !isDir {
		object, err := s.fs.Object(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %v: %w", path, err)
		}
		isDir = object.IsDir()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ip, ok := s.inodes[URL]
	if !ok {
		ip = &Inode{URL: URL, Dir: isDir}
		s.inodes[URL] = ip
	}
	ip.refs++
	return ip, nil
}

// Idup increments the inode reference count
func (s *Service) Idup(ip kernel.Inode) kernel.Inode {
	inode, ok := ip.(*Inode)
	if !ok || inode == nil {
		return ip
	}
	s.mu.Lock()
	inode.refs++
	s.mu.Unlock()
	return inode
}

// Iput drops an inode reference
func (s *Service) Iput(ip kernel.Inode) {
	inode, ok := ip.(*Inode)
	if !ok || inode == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iput(inode)
}

func (s *Service) iput(inode *Inode) {
	inode.refs--
	if inode.refs <= 0 {
		delete(s.inodes, inode.URL)
	}
}

// Open returns a new open file for path
func (s *Service) Open(ctx context.Context, path string) (kernel.File, error) {
	ip, err := s.namei(ctx, path)
	if err != nil {
		return nil, err
	}
	f := &File{Inode: ip, refs: 1}
	s.mu.Lock()
	s.files[f] = true
	s.mu.Unlock()
	return f, nil
}

// Dup increments the file reference count
func (s *Service) Dup(f kernel.File) kernel.File {
	aFile, ok := f.(*File)
	if !ok || aFile == nil {
		return f
	}
	s.mu.Lock()
	aFile.refs++
	s.mu.Unlock()
	return aFile
}

// Close drops a file reference, releasing the inode with the last one
func (s *Service) Close(f kernel.File) {
	aFile, ok := f.(*File)
	if !ok || aFile == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	aFile.refs--
	if aFile.refs > 0 {
		return
	}
	delete(s.files, aFile)
	s.iput(aFile.Inode)
}

// Refs returns the reference count of the inode for path, 0 when not cached
func (s *Service) Refs(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ip, ok := s.inodes[s.resolve(path)]; ok {
		return ip.refs
	}
	return 0
}

// FileRefs returns the reference count of an open file
func (s *Service) FileRefs(f kernel.File) int {
	aFile, ok := f.(*File)
	if !ok || aFile == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return aFile.refs
}

// OpenFiles returns number of open files
func (s *Service) OpenFiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

var _ kernel.FileSystem = (*Service)(nil)
