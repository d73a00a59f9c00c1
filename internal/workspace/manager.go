package workspace

import (
	"encoding/json"
	"sync"
)

// Manager owns the live workspace: it serializes mutations, applies tree
// surgery, and persists the result after every successful change. Tree
// operations themselves have no locking, so the manager is the required
// mutual-exclusion scope around the workspace file.
type Manager struct {
	path string

	mu   sync.Mutex
	file *File
}

// OpenManager loads (or initializes) the workspace at path.
func OpenManager(path string, tags TagIndex) (*Manager, error) {
	f, err := LoadFile(path, tags)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, file: f}, nil
}

// Snapshot returns the current workspace rendered to JSON.
func (m *Manager) Snapshot() (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Encode()
}

// CountDocs returns the number of document references.
func (m *Manager) CountDocs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Tree().CountDocs()
}

// Files returns every document file identifier in tree order.
func (m *Manager) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Tree().CollectFiles()
}

// mutate runs op against the tree and persists on success. Failed ops do
// not persist, but the in-memory tree is always kept consistent (ops
// reinsert in-flight nodes at the root rather than dropping them).
func (m *Manager) mutate(op func(t *Tree) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.file.Tree()
	err := op(t)
	m.file.Root = t.Root
	if err != nil {
		return err
	}
	return SaveFile(m.path, m.file)
}

// AddDoc adds a document reference; see Tree.AddDoc.
func (m *Manager) AddDoc(containerID, file, title, afterID string) error {
	return m.mutate(func(t *Tree) error {
		_, err := t.AddDoc(containerID, file, title, afterID)
		return err
	})
}

// AddContainer creates a container; see Tree.AddContainer.
func (m *Manager) AddContainer(parentID, name string) (*Node, error) {
	var node *Node
	err := m.mutate(func(t *Tree) error {
		var err error
		node, err = t.AddContainer(parentID, name)
		return err
	})
	return node, err
}

// Remove splices a node out of the tree; see Tree.Remove.
func (m *Manager) Remove(id string) (*Node, error) {
	var node *Node
	err := m.mutate(func(t *Tree) error {
		var err error
		node, err = t.Remove(id)
		return err
	})
	return node, err
}

// Move relocates a node; see Tree.Move.
func (m *Manager) Move(id, targetContainerID, afterID string) error {
	return m.mutate(func(t *Tree) error {
		return t.Move(id, targetContainerID, afterID)
	})
}

// Reorder repositions a node within its collection; see Tree.Reorder.
func (m *Manager) Reorder(id, afterID string) error {
	return m.mutate(func(t *Tree) error {
		return t.Reorder(id, afterID)
	})
}
