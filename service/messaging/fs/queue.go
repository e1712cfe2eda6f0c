package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/kproc/internal/clock"
	"github.com/viant/kproc/internal/idgen"
	"github.com/viant/kproc/service/messaging"
)

// Config holds configuration for the storage backed queue
type Config struct {
	// BasePath is any afs URL, for example file:///var/kproc/events or mem://localhost/events
	BasePath     string        `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	MaxRetries   int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	PollInterval time.Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	// KeepCompleted retains acknowledged messages as a journal.
	KeepCompleted bool `json:"keepCompleted,omitempty" yaml:"keepCompleted,omitempty"`
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BasePath:     "mem://localhost/kproc/queue",
		MaxRetries:   3,
		PollInterval: 10 * time.Millisecond,
	}
}

// Message is a queued payload stored as one JSON object
type Message[T any] struct {
	MessageID string    `json:"id"`
	Data      T         `json:"data"`
	Error     string    `json:"error,omitempty"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	name      string
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// ID returns the message identifier
func (m *Message[T]) ID() string { return m.MessageID }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the message from processing, moving it to the journal when
// completed messages are kept.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	m.UpdatedAt = clock.Now()
	return m.queue.complete(context.Background(), m)
}

// Nack returns the message to pending, or to the dead letter folder once
// it was rejected more than MaxRetries times.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	return m.queue.fail(context.Background(), m)
}

// Queue implements messaging.Queue on top of afs storage. Message names
// start with a sequence number so listing order is publish order.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	dlqDir        string
	seq           atomic.Uint64
	mu            sync.Mutex
}

// NewQueue creates a storage backed queue, creating its folders
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(config.BasePath, "pending"),
		processingDir: url.Join(config.BasePath, "processing"),
		completedDir:  url.Join(config.BasePath, "completed"),
		dlqDir:        url.Join(config.BasePath, "dlq"),
	}
	q.seq.Store(uint64(clock.Now().UnixNano()))

	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish stores a new pending message
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := clock.Now()
	message := &Message[T]{MessageID: idgen.New(), Data: *t, CreatedAt: now, UpdatedAt: now}
	message.name = fmt.Sprintf("%020d-%s.json", q.seq.Add(1), message.MessageID)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.write(ctx, q.pendingDir, message)
}

// Consume moves the oldest pending message to processing, polling until one
// is published or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		message, err := q.next(ctx)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.config.PollInterval):
		}
	}
}

func (q *Queue[T]) next(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	names, err := q.list(ctx, q.pendingDir)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	name := names[0]
	message, err := q.read(ctx, url.Join(q.pendingDir, name))
	if err != nil {
		_ = q.fs.Move(ctx, url.Join(q.pendingDir, name), url.Join(q.dlqDir, "invalid-"+name))
		return nil, err
	}
	message.name = name
	message.queue = q
	if err = q.write(ctx, q.processingDir, message); err != nil {
		return nil, fmt.Errorf("failed to move message to processing: %w", err)
	}
	if err = q.fs.Delete(ctx, url.Join(q.pendingDir, name)); err != nil {
		return nil, fmt.Errorf("failed to delete pending message: %w", err)
	}
	return message, nil
}

func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.config.KeepCompleted {
		if err := q.write(ctx, q.completedDir, m); err != nil {
			return err
		}
	}
	return q.fs.Delete(ctx, url.Join(q.processingDir, m.name))
}

func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	target := q.pendingDir
	if m.Retries > q.config.MaxRetries {
		target = q.dlqDir
	}
	if err := q.write(ctx, target, m); err != nil {
		return err
	}
	return q.fs.Delete(ctx, url.Join(q.processingDir, m.name))
}

// Pending returns the number of messages waiting to be consumed
func (q *Queue[T]) Pending(ctx context.Context) (int, error) {
	names, err := q.list(ctx, q.pendingDir)
	return len(names), err
}

// Completed returns journaled payloads in publish order
func (q *Queue[T]) Completed(ctx context.Context) ([]T, error) {
	return q.payloads(ctx, q.completedDir)
}

// DeadLetters returns payloads that exhausted their retries
func (q *Queue[T]) DeadLetters(ctx context.Context) ([]T, error) {
	return q.payloads(ctx, q.dlqDir)
}

func (q *Queue[T]) payloads(ctx context.Context, dir string) ([]T, error) {
	names, err := q.list(ctx, dir)
	if err != nil {
		return nil, err
	}
	var result []T
	for _, name := range names {
		message, err := q.read(ctx, url.Join(dir, name))
		if err != nil {
			return nil, err
		}
		result = append(result, message.Data)
	}
	return result, nil
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]string, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			names = append(names, obj.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (q *Queue[T]) write(ctx context.Context, dir string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.fs.Upload(ctx, url.Join(dir, m.name), file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	message := &Message[T]{}
	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
