package graph

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/internal/logger"
)

// DefaultScanLimit caps relation scans used to build candidate sets and
// cascade deletes.
const DefaultScanLimit = 9999

// Collections are the three collections of one workspace.
type Collections struct {
	Cells         docstore.Collection
	Relations     docstore.Collection
	UserRelations docstore.Collection
}

func (c Collections) complete() bool {
	return c.Cells != nil && c.Relations != nil && c.UserRelations != nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Nil keeps the process logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithListener registers an event listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator for cells and relations.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithScanLimit sets the relation scan cap. Values < 1 are ignored.
func WithScanLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.scanLimit = n
		}
	}
}

// Engine is the cell graph engine. It is safe for concurrent use.
type Engine struct {
	mu   sync.RWMutex
	cols Collections

	logger    *zap.Logger
	listeners []Listener
	now       func() time.Time
	newID     func() string
	scanLimit int

	// userRelMu serializes user relation check-then-write sequences.
	userRelMu sync.Mutex

	readingMu sync.Mutex
	reading   map[string]time.Time
}

// New creates an engine bound to cols. Zero Collections leave the engine
// unbound until Bind is called.
func New(cols Collections, opts ...Option) *Engine {
	e := &Engine{
		cols:      cols,
		logger:    logger.Get(),
		now:       time.Now,
		newID:     uuid.NewString,
		scanLimit: DefaultScanLimit,
		reading:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind replaces the bound collections. Reading sessions of the previous
// binding are discarded.
func (e *Engine) Bind(cols Collections) {
	e.mu.Lock()
	e.cols = cols
	e.mu.Unlock()

	e.readingMu.Lock()
	e.reading = make(map[string]time.Time)
	e.readingMu.Unlock()
}

// Collections returns the current binding or ErrNotBound.
func (e *Engine) Collections() (Collections, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.cols.complete() {
		return Collections{}, ErrNotBound
	}
	return e.cols, nil
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}
