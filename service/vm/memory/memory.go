package memory

import (
	"fmt"
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/vm"
)

// Config represents paged memory configuration
type Config struct {
	PageSize uint64 `json:"pageSize" yaml:"pageSize"`
	MaxPages int    `json:"maxPages" yaml:"maxPages"`
}

// DefaultConfig returns the default memory configuration
func DefaultConfig() Config {
	return Config{
		PageSize: 4096,
		MaxPages: 4096,
	}
}

// Space is a user address space made of pages starting at address 0
type Space struct {
	mu    sync.Mutex
	pages map[uint64][]byte
	size  uint64
}

// Size returns mapped size
func (s *Space) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Service allocates pages from a fixed budget. Every address space costs
// one page for its page table and every trapframe costs one page.
type Service struct {
	config Config
	mu     sync.Mutex
	used   int
}

// New creates a paged memory
func New(config Config) *Service {
	defaults := DefaultConfig()
	if config.PageSize == 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = defaults.MaxPages
	}
	return &Service{config: config}
}

// Used returns number of pages in use
func (s *Service) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Free pages left
func (s *Service) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.MaxPages - s.used
}

func (s *Service) charge(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used+n > s.config.MaxPages {
		return vm.ErrOutOfMemory
	}
	s.used += n
	return nil
}

func (s *Service) uncharge(n int) {
	s.mu.Lock()
	s.used -= n
	s.mu.Unlock()
}

func (s *Service) roundUp(size uint64) uint64 {
	return (size + s.config.PageSize - 1) / s.config.PageSize * s.config.PageSize
}

func asSpace(space kernel.Space) (*Space, error) {
	result, ok := space.(*Space)
	if !ok || result == nil {
		return nil, fmt.Errorf("%w: %T", vm.ErrBadSpace, space)
	}
	return result, nil
}

// Create returns an empty address space
func (s *Service) Create() (kernel.Space, error) {
	if err := s.charge(1); err != nil {
		return nil, err
	}
	return &Space{pages: map[uint64][]byte{}}, nil
}

// Grow maps or unmaps pages so that the space covers newSize bytes
func (s *Service) Grow(space kernel.Space, oldSize, newSize uint64) (uint64, error) {
	sp, err := asSpace(space)
	if err != nil {
		return oldSize, err
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if newSize < oldSize {
		from := s.roundUp(newSize)
		freed := 0
		for va := range sp.pages {
			if va >= from {
				delete(sp.pages, va)
				freed++
			}
		}
		s.uncharge(freed)
		sp.size = newSize
		return newSize, nil
	}
	for va := s.roundUp(oldSize); va < newSize; va += s.config.PageSize {
		if err := s.charge(1); err != nil {
			// unmap what this call mapped
			for undo := s.roundUp(oldSize); undo < va; undo += s.config.PageSize {
				delete(sp.pages, undo)
				s.uncharge(1)
			}
			return oldSize, err
		}
		sp.pages[va] = make([]byte, s.config.PageSize)
	}
	sp.size = newSize
	return newSize, nil
}

// Copy duplicates the first size bytes of src into dst
func (s *Service) Copy(src, dst kernel.Space, size uint64) error {
	from, err := asSpace(src)
	if err != nil {
		return err
	}
	to, err := asSpace(dst)
	if err != nil {
		return err
	}
	from.mu.Lock()
	defer from.mu.Unlock()
	to.mu.Lock()
	defer to.mu.Unlock()
	var mapped []uint64
	for va := uint64(0); va < size; va += s.config.PageSize {
		page, ok := from.pages[va]
		if !ok {
			return fmt.Errorf("copy: page %x not present: %w", va, vm.ErrBadAddress)
		}
		if err := s.charge(1); err != nil {
			for _, undo := range mapped {
				delete(to.pages, undo)
				s.uncharge(1)
			}
			return err
		}
		to.pages[va] = append([]byte(nil), page...)
		mapped = append(mapped, va)
	}
	to.size = size
	return nil
}

// Free releases all user pages and the page table
func (s *Service) Free(space kernel.Space, _ uint64) {
	sp, err := asSpace(space)
	if err != nil {
		return
	}
	sp.mu.Lock()
	n := len(sp.pages)
	sp.pages = map[uint64][]byte{}
	sp.size = 0
	sp.mu.Unlock()
	s.uncharge(n + 1)
}

// CopyOut writes data at user address addr
func (s *Service) CopyOut(space kernel.Space, addr uint64, data []byte) error {
	return s.transfer(space, addr, data, true)
}

// CopyIn reads len(data) bytes at user address addr
func (s *Service) CopyIn(space kernel.Space, addr uint64, data []byte) error {
	return s.transfer(space, addr, data, false)
}

func (s *Service) transfer(space kernel.Space, addr uint64, data []byte, out bool) error {
	sp, err := asSpace(space)
	if err != nil {
		return err
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	end := addr + uint64(len(data))
	if end < addr || end > sp.size {
		return fmt.Errorf("[%x, %x) outside %x: %w", addr, end, sp.size, vm.ErrBadAddress)
	}
	for done := 0; done < len(data); {
		va := addr + uint64(done)
		base := va - va%s.config.PageSize
		page, ok := sp.pages[base]
		if !ok {
			return fmt.Errorf("page %x not present: %w", base, vm.ErrBadAddress)
		}
		offset := va - base
		var n int
		if out {
			n = copy(page[offset:], data[done:])
		} else {
			n = copy(data[done:], page[offset:])
		}
		done += n
	}
	return nil
}

// NewFrame allocates a trapframe page
func (s *Service) NewFrame() (*proc.Trapframe, error) {
	if err := s.charge(1); err != nil {
		return nil, err
	}
	return &proc.Trapframe{}, nil
}

// FreeFrame releases a trapframe page
func (s *Service) FreeFrame(*proc.Trapframe) {
	s.uncharge(1)
}

var _ kernel.Memory = (*Service)(nil)
