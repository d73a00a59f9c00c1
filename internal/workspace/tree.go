// Package workspace manages the document organization tree: an ordered
// forest of document references and named containers, bounded in depth.
// All tree surgery is pure and synchronous; persistence is the caller's
// job (the Manager wraps both).
package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/calder/inkwell/internal/apperr"
)

// maxDepth bounds container nesting: root's direct children sit at depth 1,
// and a container may not end up at depth 3 or deeper.
const maxDepth = 3

// Node is either a document reference (File set) or a container (ID set).
// The two shapes share one struct so the persisted JSON stays
// presence-discriminated, matching the editor's payloads.
type Node struct {
	// Document reference fields.
	File     string  `json:"file,omitempty"`
	Title    string  `json:"title,omitempty"`
	Children []*Node `json:"children,omitempty"` // containers nested under a doc

	// Container fields.
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name,omitempty"`
	Items []*Node `json:"items,omitempty"`
}

// IsDoc reports whether the node references a document.
func (n *Node) IsDoc() bool { return n.File != "" }

// matches reports whether the node is addressed by id: docs by file,
// containers by container id.
func (n *Node) matches(id string) bool {
	if n.IsDoc() {
		return n.File == id
	}
	return n.ID == id
}

// newContainerID returns a short random container identifier.
func newContainerID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Tree is the workspace forest.
type Tree struct {
	Root []*Node
}

// Found is the result of a tree search: the node, the collection that holds
// it, and its index within that collection.
type Found struct {
	Node   *Node
	Parent *[]*Node
	Index  int
	Depth  int // container depth of Node; docs report their collection's depth + 1
}

// Find returns the first node (depth-first) satisfying pred, or nil.
// The search descends into container items and into containers nested
// under document references; the same rule applies everywhere.
func (t *Tree) Find(pred func(*Node) bool) *Found {
	return findIn(&t.Root, 1, pred)
}

func findIn(coll *[]*Node, depth int, pred func(*Node) bool) *Found {
	for i, n := range *coll {
		if pred(n) {
			return &Found{Node: n, Parent: coll, Index: i, Depth: depth}
		}
		if f := findIn(&n.Items, depth+1, pred); f != nil {
			return f
		}
		if f := findIn(&n.Children, depth+1, pred); f != nil {
			return f
		}
	}
	return nil
}

// findByID locates a node by file (docs) or id (containers).
func (t *Tree) findByID(id string) *Found {
	return t.Find(func(n *Node) bool { return n.matches(id) })
}

// collection resolves the target collection for containerID ("" means the
// root) along with the depth its direct children occupy.
func (t *Tree) collection(containerID string) (*[]*Node, int, error) {
	if containerID == "" {
		return &t.Root, 1, nil
	}
	f := t.Find(func(n *Node) bool { return !n.IsDoc() && n.ID == containerID })
	if f == nil {
		return nil, 0, fmt.Errorf("workspace: container %q: %w", containerID, apperr.ErrNotFound)
	}
	return &f.Node.Items, f.Depth + 1, nil
}

// insert places node into coll: after the sibling named by afterID when
// found, at the tail when afterID is given but absent, at the front when
// afterID is empty. New items surface first by default.
func insert(coll *[]*Node, node *Node, afterID string) {
	if afterID == "" {
		*coll = append([]*Node{node}, *coll...)
		return
	}
	for i, n := range *coll {
		if n.matches(afterID) {
			*coll = append((*coll)[:i+1], append([]*Node{node}, (*coll)[i+1:]...)...)
			return
		}
	}
	*coll = append(*coll, node)
}

// splice removes and returns the node at index i of coll.
func splice(coll *[]*Node, i int) *Node {
	n := (*coll)[i]
	*coll = append((*coll)[:i], (*coll)[i+1:]...)
	return n
}

// containerHeight returns the number of container levels the subtree spans:
// 1 for a childless container, 0 for a doc without nested containers.
func containerHeight(n *Node) int {
	h := 0
	if !n.IsDoc() {
		h = 1
	}
	deepest := 0
	for _, c := range append(append([]*Node{}, n.Items...), n.Children...) {
		if ch := containerHeight(c); ch > deepest {
			deepest = ch
		}
	}
	return h + deepest
}

// AddDoc inserts a document reference into the container named by
// containerID ("" for the root). The file must not already exist anywhere
// in the tree.
func (t *Tree) AddDoc(containerID, file, title, afterID string) (*Node, error) {
	if file == "" {
		return nil, fmt.Errorf("workspace: file is required")
	}
	if f := t.Find(func(n *Node) bool { return n.File == file }); f != nil {
		return nil, fmt.Errorf("workspace: %q: %w", file, apperr.ErrDuplicate)
	}
	coll, _, err := t.collection(containerID)
	if err != nil {
		return nil, err
	}
	node := &Node{File: file, Title: title}
	insert(coll, node, afterID)
	return node, nil
}

// AddContainer creates a container under parentID ("" for the root),
// rejecting positions at depth 3 or deeper.
func (t *Tree) AddContainer(parentID, name string) (*Node, error) {
	coll, depth, err := t.collection(parentID)
	if err != nil {
		return nil, err
	}
	if depth >= maxDepth {
		return nil, fmt.Errorf("workspace: depth %d: %w", depth, apperr.ErrDepthExceeded)
	}
	node := &Node{ID: newContainerID(), Name: name, Items: []*Node{}}
	insert(coll, node, "")
	return node, nil
}

// Remove splices the node addressed by id out of the tree and returns the
// removed subtree.
func (t *Tree) Remove(id string) (*Node, error) {
	f := t.findByID(id)
	if f == nil {
		return nil, fmt.Errorf("workspace: %q: %w", id, apperr.ErrNotFound)
	}
	return splice(f.Parent, f.Index), nil
}

// Move relocates a node into the container named by targetContainerID
// ("" for root) at the position given by afterID ("" for front). A failed
// move never discards the node: it is reinserted at the root before the
// error is returned.
func (t *Tree) Move(id, targetContainerID, afterID string) error {
	f := t.findByID(id)
	if f == nil {
		return fmt.Errorf("workspace: %q: %w", id, apperr.ErrNotFound)
	}
	node := splice(f.Parent, f.Index)

	coll, depth, err := t.collection(targetContainerID)
	if err != nil {
		insert(&t.Root, node, "")
		return err
	}
	if !node.IsDoc() {
		if deepest := depth + containerHeight(node) - 1; deepest > maxDepth-1 {
			insert(&t.Root, node, "")
			return fmt.Errorf("workspace: move %q to depth %d: %w", id, deepest, apperr.ErrDepthExceeded)
		}
	}
	insert(coll, node, afterID)
	return nil
}

// Reorder repositions a node within its current collection.
func (t *Tree) Reorder(id, afterID string) error {
	f := t.findByID(id)
	if f == nil {
		return fmt.Errorf("workspace: %q: %w", id, apperr.ErrNotFound)
	}
	coll := f.Parent
	node := splice(coll, f.Index)
	insert(coll, node, afterID)
	return nil
}

// CollectFiles returns every document file identifier in the tree, in
// depth-first order.
func (t *Tree) CollectFiles() []string {
	var out []string
	t.walk(func(n *Node) {
		if n.IsDoc() {
			out = append(out, n.File)
		}
	})
	return out
}

// CountDocs returns the number of document references in the tree.
func (t *Tree) CountDocs() int {
	count := 0
	t.walk(func(n *Node) {
		if n.IsDoc() {
			count++
		}
	})
	return count
}

// CountContainers returns the number of containers in the tree.
func (t *Tree) CountContainers() int {
	count := 0
	t.walk(func(n *Node) {
		if !n.IsDoc() {
			count++
		}
	})
	return count
}

func (t *Tree) walk(visit func(*Node)) {
	var rec func(nodes []*Node)
	rec = func(nodes []*Node) {
		for _, n := range nodes {
			visit(n)
			rec(n.Items)
			rec(n.Children)
		}
	}
	rec(t.Root)
}
