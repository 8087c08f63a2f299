// Package naming implements the naming server: the in-memory
// directory-tree metadata store, the ancestor-chain path-lock manager,
// and the storage-registration/dedup handshake that together enforce the
// filesystem's consistency invariants.
package naming

import (
	"math/rand"
	"sync"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
)

// Replica identifies one storage server's copy of a file: the host:port
// addresses of its Read and Command RPC interfaces.
type Replica struct {
	ReadAddr    string
	CommandAddr string
}

// node is a tagged union: a path maps to exactly one of a file or a
// directory, never both. The two variants carry only their own fields,
// so a directory can never accidentally acquire a replica set.
type node struct {
	file *fileNode
	dir  *dirNode
}

type fileNode struct {
	replicas    []Replica
	accessCount int
}

type dirNode struct {
	// children maps a child's path string to its full path, so the
	// tree resolves ancestry by lookup rather than by back-pointer.
	children map[string]path.Path
}

func (n *node) isDirectory() bool { return n.dir != nil }

// Tree is the naming server's directory-tree metadata store. All
// exported methods are safe for concurrent use; callers still have the
// global locking discipline of §4.D layered on top via the Locker type in
// this package, but Tree itself also protects its own map against races
// between mutations of disjoint subtrees.
type Tree struct {
	mu    sync.Mutex
	nodes map[string]*node
	rng   *rand.Rand
}

// NewTree creates a Tree containing only the root directory. seed seeds
// the random number generator used by PickReplica; callers should vary
// it across processes (e.g. from the current time or a process-specific
// value) so that multiple naming-server instances in a test cluster do
// not pick identical replica sequences.
func NewTree(seed int64) *Tree {
	t := &Tree{
		nodes: make(map[string]*node),
		rng:   rand.New(rand.NewSource(seed)),
	}
	t.nodes[path.Root.String()] = &node{dir: &dirNode{children: make(map[string]path.Path)}}
	return t
}

func (t *Tree) get(p path.Path) (*node, bool) {
	n, ok := t.nodes[p.String()]
	return n, ok
}

// Exists reports whether p has a node in the tree.
func (t *Tree) Exists(p path.Path) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.get(p)
	return ok
}

// IsDirectory reports whether p is a directory node. It fails not-found
// if p is absent.
func (t *Tree) IsDirectory(p path.Path) (bool, error) {
	const op = "naming.Tree.IsDirectory"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok {
		return false, errors.E(op, p.String(), errors.NotFound)
	}
	return n.isDirectory(), nil
}

// Children returns the component names of the immediate children of the
// directory at p, in no particular order. It fails not-found if p is
// absent or is not a directory.
func (t *Tree) Children(p path.Path) ([]string, error) {
	const op = "naming.Tree.Children"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || !n.isDirectory() {
		return nil, errors.E(op, p.String(), errors.NotFound)
	}
	names := make([]string, 0, len(n.dir.children))
	for childPath := range n.dir.children {
		child, err := path.Parse(childPath)
		if err != nil {
			continue
		}
		name, err := child.Last()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ReplicasOf returns the replica set of the file at p. It fails not-found
// if p is absent or is a directory.
func (t *Tree) ReplicasOf(p path.Path) ([]Replica, error) {
	const op = "naming.Tree.ReplicasOf"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || n.isDirectory() {
		return nil, errors.E(op, p.String(), errors.NotFound)
	}
	out := make([]Replica, len(n.file.replicas))
	copy(out, n.file.replicas)
	return out, nil
}

// PickReplica chooses one replica of the file at p uniformly at random,
// so that repeated calls across many paths distribute load across
// storage servers. It fails not-found if p is absent or is a directory.
func (t *Tree) PickReplica(p path.Path) (Replica, error) {
	const op = "naming.Tree.PickReplica"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || n.isDirectory() {
		return Replica{}, errors.E(op, p.String(), errors.NotFound)
	}
	return n.file.replicas[t.rng.Intn(len(n.file.replicas))], nil
}

// InsertFile inserts a new file node at p with the given sole replica. It
// requires parent(p) to exist as a directory and p to be absent.
func (t *Tree) InsertFile(p path.Path, replica Replica) error {
	const op = "naming.Tree.InsertFile"
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.prepareInsert(op, p); err != nil {
		return err
	}
	t.nodes[p.String()] = &node{file: &fileNode{replicas: []Replica{replica}}}
	t.linkChild(p)
	return nil
}

// InsertDirectory inserts a new, empty directory node at p. It requires
// parent(p) to exist as a directory and p to be absent.
func (t *Tree) InsertDirectory(p path.Path) error {
	const op = "naming.Tree.InsertDirectory"
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.prepareInsert(op, p); err != nil {
		return err
	}
	t.nodes[p.String()] = &node{dir: &dirNode{children: make(map[string]path.Path)}}
	t.linkChild(p)
	return nil
}

func (t *Tree) prepareInsert(op string, p path.Path) error {
	if p.IsRoot() {
		return errors.E(op, p.String(), errors.IllegalArgument, errors.Str("cannot insert root"))
	}
	if _, ok := t.get(p); ok {
		return errors.E(op, p.String(), errors.IllegalArgument, errors.Str("path already exists"))
	}
	parent, err := p.Parent()
	if err != nil {
		return errors.E(op, err)
	}
	pn, ok := t.get(parent)
	if !ok || !pn.isDirectory() {
		return errors.E(op, parent.String(), errors.NotFound)
	}
	return nil
}

func (t *Tree) linkChild(p path.Path) {
	parent, _ := p.Parent()
	pn := t.nodes[parent.String()]
	pn.dir.children[p.String()] = p
}

// Remove deletes p and, if p is a directory, its entire subtree. Root may
// not be removed. It is the caller's responsibility (the naming server's
// delete operation, under the X-lock it holds on p) to have already
// issued delete commands to every replica of every file in the subtree;
// Remove only updates tree state.
func (t *Tree) Remove(p path.Path) error {
	const op = "naming.Tree.Remove"
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.IsRoot() {
		return errors.E(op, p.String(), errors.IllegalArgument, errors.Str("cannot remove root"))
	}
	n, ok := t.get(p)
	if !ok {
		return errors.E(op, p.String(), errors.NotFound)
	}
	t.removeSubtree(p, n)
	parent, _ := p.Parent()
	if pn, ok := t.get(parent); ok && pn.isDirectory() {
		delete(pn.dir.children, p.String())
	}
	return nil
}

func (t *Tree) removeSubtree(p path.Path, n *node) {
	if n.isDirectory() {
		for _, child := range n.dir.children {
			if cn, ok := t.get(child); ok {
				t.removeSubtree(child, cn)
			}
		}
	}
	delete(t.nodes, p.String())
}

// FilesUnder returns every file path in the subtree rooted at p
// (including p itself if it is a file), used by delete to enumerate the
// replicas that must be told to delete their local copies.
func (t *Tree) FilesUnder(p path.Path) ([]path.Path, error) {
	const op = "naming.Tree.FilesUnder"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok {
		return nil, errors.E(op, p.String(), errors.NotFound)
	}
	var out []path.Path
	t.collectFiles(p, n, &out)
	return out, nil
}

func (t *Tree) collectFiles(p path.Path, n *node, out *[]path.Path) {
	if !n.isDirectory() {
		*out = append(*out, p)
		return
	}
	for _, child := range n.dir.children {
		if cn, ok := t.get(child); ok {
			t.collectFiles(child, cn, out)
		}
	}
}

// addReplica appends replica to the file at p's replica set. Used by the
// lock manager's replication policy, from the goroutine that Lock
// schedules; it does not acquire path locks, and that goroutine holds
// none of its own.
func (t *Tree) addReplica(p path.Path, r Replica) error {
	const op = "naming.Tree.addReplica"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || n.isDirectory() {
		return errors.E(op, p.String(), errors.NotFound)
	}
	n.file.replicas = append(n.file.replicas, r)
	return nil
}

// shrinkToOne reduces the file at p's replica set to its first entry,
// returning the replicas that were dropped. Used by X-lock invalidation.
func (t *Tree) shrinkToOne(p path.Path) ([]Replica, error) {
	const op = "naming.Tree.shrinkToOne"
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || n.isDirectory() {
		return nil, errors.E(op, p.String(), errors.NotFound)
	}
	if len(n.file.replicas) <= 1 {
		return nil, nil
	}
	dropped := n.file.replicas[1:]
	kept := n.file.replicas[0]
	n.file.replicas = []Replica{kept}
	return dropped, nil
}

// bumpAccessCount increments the file at p's access counter and returns
// the new value, or (0, false) if the counter should not be acted on
// (p is absent, a directory, or was concurrently removed).
func (t *Tree) bumpAccessCount(p path.Path) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.get(p)
	if !ok || n.isDirectory() {
		return 0, false
	}
	n.file.accessCount++
	return n.file.accessCount, true
}

// resetAccessCount zeroes the file at p's access counter.
func (t *Tree) resetAccessCount(p path.Path) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.get(p); ok && !n.isDirectory() {
		n.file.accessCount = 0
	}
}
