package naming

import (
	"math/rand"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
)

// Service composes the tree, lock manager, and storage registry into the
// naming server's client-facing and storage-facing operations.
type Service struct {
	tree     *Tree
	locker   *Locker
	registry *Registry
	rng      *rand.Rand
}

// NewService creates a Service over tree, locker, and registry. seed
// seeds the random choice of storage server made by CreateFile.
func NewService(tree *Tree, locker *Locker, registry *Registry, seed int64) *Service {
	return &Service{
		tree:     tree,
		locker:   locker,
		registry: registry,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// IsDirectory reports whether p is a directory, taking S on p and its
// ancestors.
func (s *Service) IsDirectory(p path.Path) (bool, error) {
	if err := s.locker.Lock(p, false); err != nil {
		return false, err
	}
	defer s.locker.Unlock(p, false)
	return s.tree.IsDirectory(p)
}

// List returns the names of dir's immediate children, taking S on dir and
// its ancestors.
func (s *Service) List(dir path.Path) ([]string, error) {
	const op = "naming.Service.List"
	if err := s.locker.Lock(dir, false); err != nil {
		return nil, err
	}
	defer s.locker.Unlock(dir, false)
	isDir, err := s.tree.IsDirectory(dir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, errors.E(op, dir.String(), errors.NotFound, errors.Str("not a directory"))
	}
	return s.tree.Children(dir)
}

// CreateFile creates an empty file at p on a randomly chosen registered
// storage server. It takes S on p's ancestors and X on parent(p).
func (s *Service) CreateFile(p path.Path) (bool, error) {
	const op = "naming.Service.CreateFile"
	parent, err := s.lockParentExclusive(op, p)
	if err != nil {
		return false, err
	}
	defer s.locker.Unlock(parent, true)

	if s.tree.Exists(p) {
		return false, nil
	}
	record, err := s.registry.Random(s.rng)
	if err != nil {
		return false, err
	}

	client, err := rpctransport.Dial(record.CommandAddr)
	if err != nil {
		return false, errors.E(op, errors.Transport, err)
	}
	defer client.Close()

	var reply rpcapi.BoolReply
	if err := client.Call("Command.Create", &rpcapi.PathArgs{Path: p}, &reply); err != nil {
		return false, errors.E(op, errors.Transport, err)
	}
	if !reply.Ok {
		return false, nil
	}
	if err := s.tree.InsertFile(p, record); err != nil {
		return false, errors.E(op, err)
	}
	return true, nil
}

// CreateDirectory creates an empty directory at p. It takes S on p's
// ancestors and X on parent(p).
func (s *Service) CreateDirectory(p path.Path) (bool, error) {
	const op = "naming.Service.CreateDirectory"
	parent, err := s.lockParentExclusive(op, p)
	if err != nil {
		return false, err
	}
	defer s.locker.Unlock(parent, true)

	if s.tree.Exists(p) {
		return false, nil
	}
	if err := s.tree.InsertDirectory(p); err != nil {
		return false, errors.E(op, err)
	}
	return true, nil
}

// lockParentExclusive takes S on the ancestors of p and X on parent(p),
// using the ordinary ancestor-chain Lock on parent(p) itself (parent(p)'s
// own ancestors are exactly p's ancestors minus parent(p)). It fails
// not-found if p is root or parent(p) is absent or not a directory.
func (s *Service) lockParentExclusive(op string, p path.Path) (path.Path, error) {
	parent, err := p.Parent()
	if err != nil {
		return path.Path{}, errors.E(op, p.String(), errors.NotFound, errors.Str("root has no parent"))
	}
	if err := s.locker.Lock(parent, true); err != nil {
		return path.Path{}, err
	}
	isDir, err := s.tree.IsDirectory(parent)
	if err != nil || !isDir {
		s.locker.Unlock(parent, true)
		return path.Path{}, errors.E(op, parent.String(), errors.NotFound, errors.Str("parent is not a directory"))
	}
	return parent, nil
}

// Delete removes p and its subtree, instructing every replica of every
// file in the subtree to delete its local copy first. It takes S on p's
// ancestors and X on p. Per the chosen all-or-nothing semantics, if any
// replica reports it could not delete its copy, the tree is left
// unchanged and Delete returns false; a transport failure aborts the
// operation the same way.
func (s *Service) Delete(p path.Path) (bool, error) {
	const op = "naming.Service.Delete"
	if p.IsRoot() {
		return false, errors.E(op, errors.IllegalArgument, errors.Str("cannot delete root"))
	}
	if err := s.locker.Lock(p, true); err != nil {
		return false, err
	}
	defer s.locker.Unlock(p, true)

	files, err := s.tree.FilesUnder(p)
	if err != nil {
		return false, err
	}

	allOK := true
	for _, f := range files {
		replicas, err := s.tree.ReplicasOf(f)
		if err != nil {
			continue
		}
		for _, r := range replicas {
			client, err := rpctransport.Dial(r.CommandAddr)
			if err != nil {
				return false, errors.E(op, errors.Transport, err)
			}
			var reply rpcapi.BoolReply
			callErr := client.Call("Command.Delete", &rpcapi.PathArgs{Path: f}, &reply)
			client.Close()
			if callErr != nil {
				return false, errors.E(op, errors.Transport, callErr)
			}
			if !reply.Ok {
				allOK = false
			}
		}
	}
	if !allOK {
		return false, nil
	}
	if err := s.tree.Remove(p); err != nil {
		return false, errors.E(op, err)
	}
	return true, nil
}

// GetStorage returns the read-interface address of a replica of the file
// at p, taking S on p and its ancestors.
func (s *Service) GetStorage(p path.Path) (string, error) {
	const op = "naming.Service.GetStorage"
	if err := s.locker.Lock(p, false); err != nil {
		return "", err
	}
	defer s.locker.Unlock(p, false)

	isDir, err := s.tree.IsDirectory(p)
	if err != nil {
		return "", err
	}
	if isDir {
		return "", errors.E(op, p.String(), errors.NotFound, errors.Str("not a file"))
	}
	replica, err := s.tree.PickReplica(p)
	if err != nil {
		return "", err
	}
	return replica.ReadAddr, nil
}

// Register accepts a storage server's advertised file list, merging each
// path into the tree (creating missing ancestor directories along the
// way) and returning the subset the storage server must delete locally
// because another server registered the same path first.
func (s *Service) Register(readAddr, commandAddr string, paths []path.Path) ([]path.Path, error) {
	const op = "naming.Service.Register"
	if readAddr == "" || commandAddr == "" || paths == nil {
		return nil, errors.E(op, errors.NullArgument, errors.Str("register requires non-empty stubs and a path list"))
	}
	replica := Replica{ReadAddr: readAddr, CommandAddr: commandAddr}
	if err := s.registry.Add(replica); err != nil {
		return nil, err
	}

	var duplicates []path.Path
	for _, p := range paths {
		if p.IsRoot() {
			continue
		}
		dup, err := s.registerPath(p, replica)
		if err != nil {
			log.Error.Printf("naming: register %s: %v", p, err)
			continue
		}
		if dup {
			duplicates = append(duplicates, p)
		}
	}
	return duplicates, nil
}

// registerPath ensures every missing ancestor directory of p exists,
// then inserts a file node at p with replica as its sole replica. If p
// already exists as a file, it reports a duplicate instead of mutating
// the tree (first registrant wins).
func (s *Service) registerPath(p path.Path, replica Replica) (duplicate bool, err error) {
	ancestors := p.Ancestors()
	for i := 1; i < len(ancestors); i++ {
		dir, parent := ancestors[i], ancestors[i-1]
		if err := s.ensureDirectory(parent, dir); err != nil {
			return false, err
		}
	}

	parent, _ := p.Parent()
	if err := s.locker.Lock(parent, true); err != nil {
		return false, err
	}
	defer s.locker.Unlock(parent, true)

	if s.tree.Exists(p) {
		return true, nil
	}
	if err := s.tree.InsertFile(p, replica); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) ensureDirectory(parent, dir path.Path) error {
	if err := s.locker.Lock(parent, true); err != nil {
		return err
	}
	defer s.locker.Unlock(parent, true)
	if s.tree.Exists(dir) {
		return nil
	}
	return s.tree.InsertDirectory(dir)
}
