package workspace

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/internal/logger"
)

// RegistryCollection is the collection holding workspace records.
const RegistryCollection = "workspaces"

// Collection name prefixes. A workspace's collections are <prefix><id>.
const (
	CellsPrefix         = "cells_"
	RelationsPrefix     = "cellRelations_"
	UserRelationsPrefix = "cellUserRelations_"
)

// Backend opens named collections.
type Backend interface {
	Collection(name string) docstore.Collection
}

// Binder receives the collections of the active workspace.
type Binder interface {
	Bind(cols graph.Collections)
}

// CollectionsFor returns the three collections of workspace id.
func CollectionsFor(b Backend, id string) graph.Collections {
	return graph.Collections{
		Cells:         b.Collection(CellsPrefix + id),
		Relations:     b.Collection(RelationsPrefix + id),
		UserRelations: b.Collection(UserRelationsPrefix + id),
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger. Nil keeps the process logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the workspace registry and the active workspace. It is safe
// for concurrent use.
type Manager struct {
	backend  Backend
	registry docstore.Collection
	binder   Binder
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	current *Workspace

	// recent holds workspace ids, most recently switched to first.
	recent []string
}

// NewManager creates a manager over backend. binder, if not nil, is
// rebound on every switch.
func NewManager(backend Backend, binder Binder, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		registry: backend.Collection(RegistryCollection),
		binder:   binder,
		logger:   logger.Get(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init activates a workspace: preferredID if it exists, else the most
// recently used one, else the first registered one. With an empty
// registry a new workspace is created from defaults.
func (m *Manager) Init(ctx context.Context, preferredID string) (*Workspace, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		w, err := m.Create(ctx, nil)
		if err != nil {
			return nil, err
		}
		return m.Switch(ctx, w.ID)
	}

	m.mu.RLock()
	candidates := append([]string{preferredID}, m.recent...)
	m.mu.RUnlock()

	pick := all[0]
	for _, id := range candidates {
		if i := slices.IndexFunc(all, func(w *Workspace) bool { return w.ID == id }); id != "" && i >= 0 {
			pick = all[i]
			break
		}
	}
	return m.Switch(ctx, pick.ID)
}

// List returns every registered workspace in registration order.
func (m *Manager) List(ctx context.Context) ([]*Workspace, error) {
	docs, err := m.registry.Find(ctx, nil, docstore.FindOptions{})
	if err != nil {
		m.logger.Error("list workspaces failed", zap.Error(err))
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out := make([]*Workspace, 0, len(docs))
	for _, d := range docs {
		out = append(out, Normalize(d, m.now()))
	}
	return out, nil
}

// Create registers a new workspace built from data. A given id that is
// already registered fails with docstore.ErrConflict.
func (m *Manager) Create(ctx context.Context, data map[string]any) (*Workspace, error) {
	w := Normalize(data, m.now())
	w.Rev = 0
	w.Version = 1

	rev, err := m.registry.Put(ctx, w.Document())
	if err != nil {
		m.logger.Error("create workspace failed", zap.String("id", w.ID), zap.Error(err))
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	w.Rev = rev
	m.logger.Info("workspace created", zap.String("id", w.ID), zap.String("name", w.Name))
	return w, nil
}

// Get returns the workspace registered under id.
func (m *Manager) Get(ctx context.Context, id string) (*Workspace, error) {
	doc, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return Normalize(doc, m.now()), nil
}

func (m *Manager) fetch(ctx context.Context, id string) (docstore.Document, error) {
	if id == "" {
		return nil, ErrWorkspaceNotFound
	}
	doc, err := m.registry.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		m.logger.Error("get workspace failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get workspace %s: %w", id, err)
	}
	return doc, nil
}

// Update merges patch over the stored workspace and bumps its version.
// Top-level keys of patch replace stored ones; id and revision are ignored.
func (m *Manager) Update(ctx context.Context, id string, patch map[string]any) (*Workspace, error) {
	doc, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	for k, v := range patch {
		if k == docstore.KeyField || k == docstore.RevField {
			continue
		}
		doc[k] = docstore.CloneValue(v)
	}
	version, _ := docstore.AsInt64(doc["version"])

	w := Normalize(doc, m.now())
	w.Version = max(version, 0) + 1

	rev, err := m.registry.Put(ctx, w.Document())
	if err != nil {
		m.logger.Error("update workspace failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("update workspace %s: %w", id, err)
	}
	w.Rev = rev

	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current = w
	}
	m.mu.Unlock()
	return w, nil
}

// UpdateConfig merges patch into the active workspace's config. It
// reports false without writing when nothing would change.
func (m *Manager) UpdateConfig(ctx context.Context, patch map[string]any) (bool, error) {
	return m.mergeCurrent(ctx, "config", patch)
}

// UpdateUser merges patch into the active workspace's user settings.
func (m *Manager) UpdateUser(ctx context.Context, patch map[string]any) (bool, error) {
	return m.mergeCurrent(ctx, "user", patch)
}

func (m *Manager) mergeCurrent(ctx context.Context, key string, patch map[string]any) (bool, error) {
	cur, err := m.Current()
	if err != nil {
		return false, err
	}
	base := cur.Config
	if key == "user" {
		base = cur.User
	}

	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = docstore.CloneValue(v)
	}
	if reflect.DeepEqual(base, merged) {
		return false, nil
	}
	if _, err := m.Update(ctx, cur.ID, map[string]any{key: merged}); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes workspace id and empties its collections. Deleting the
// active workspace activates another one the way Init does.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.fetch(ctx, id); err != nil {
		return err
	}
	if err := m.registry.Remove(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrWorkspaceNotFound
		}
		m.logger.Error("delete workspace failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}

	cols := CollectionsFor(m.backend, id)
	for _, col := range []docstore.Collection{cols.Cells, cols.Relations, cols.UserRelations} {
		if err := clearCollection(ctx, col); err != nil {
			// The record is gone; leftover documents are unreachable.
			m.logger.Warn("failed to clear workspace collection",
				zap.String("id", id),
				zap.Error(err),
			)
		}
	}

	m.mu.Lock()
	m.recent = slices.DeleteFunc(m.recent, func(r string) bool { return r == id })
	wasCurrent := m.current != nil && m.current.ID == id
	if wasCurrent {
		m.current = nil
	}
	m.mu.Unlock()
	m.logger.Info("workspace deleted", zap.String("id", id))

	if !wasCurrent {
		return nil
	}
	_, err := m.Init(ctx, "")
	return err
}

func clearCollection(ctx context.Context, col docstore.Collection) error {
	docs, err := col.Find(ctx, nil, docstore.FindOptions{Fields: []string{docstore.KeyField}})
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	return col.BulkDelete(ctx, ids)
}

// Switch makes workspace id the active one and binds its collections.
func (m *Manager) Switch(ctx context.Context, id string) (*Workspace, error) {
	w, err := m.Get(ctx, id)
	if err != nil {
		m.logger.Debug("switch workspace failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.binder != nil {
		m.binder.Bind(CollectionsFor(m.backend, id))
	}
	m.current = w
	m.recent = append([]string{id}, slices.DeleteFunc(m.recent, func(r string) bool { return r == id })...)

	m.logger.Info("workspace switched", zap.String("id", id))
	return w, nil
}

// Current returns the active workspace.
func (m *Manager) Current() (*Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNoWorkspace
	}
	return m.current, nil
}

// Recent returns workspace ids, most recently switched to first.
func (m *Manager) Recent() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.recent)
}
