package database

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Opener opens a backend at path. Backends that keep no files ignore path.
type Opener func(path string) (DB, error)

var (
	mu      sync.RWMutex
	openers = make(map[string]Opener)
)

// Register registers a backend opener under name.
func Register(name string, opener Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[name] = opener
}

// Backends returns the registered backend names.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manager opens one configured backend and owns its lifetime.
type Manager struct {
	backend string
	path    string

	mu sync.Mutex
	db DB
}

// NewManager returns a manager for backend at path. The backend package
// must be linked in for Open to find it.
func NewManager(backend, path string) *Manager {
	return &Manager{backend: backend, path: path}
}

// Open opens the database, or returns the one already open.
func (m *Manager) Open() (DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	mu.RLock()
	opener, ok := openers[m.backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown database backend: %s", m.backend)
	}

	db, err := opener(m.path)
	if err != nil {
		return nil, err
	}
	m.db = db
	return db, nil
}

// Close closes the database if it is open.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	var err error
	if c, ok := m.db.(io.Closer); ok {
		err = c.Close()
	}
	m.db = nil
	return err
}

// Backend returns the configured backend name.
func (m *Manager) Backend() string { return m.backend }
