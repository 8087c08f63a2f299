// Package storage implements a storage server's file command layer: the
// create/delete/read/write/copy operations exposed over a fixed host
// directory, grounded on the naming server's expectation that a path maps
// 1:1 onto a host path by component-wise join, with no separate metadata
// file.
package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"

	derrors "github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
)

// Server owns one local directory and serves the Read and Command
// interfaces against it. Read, Write, Create and Delete each hold a
// per-path mutex, keyed by the path they are given, while they run; Size,
// List and PruneEmptyAncestors take no lock, and Copy takes the mutex
// only inside the Delete, Create, Write and Read calls it makes. The
// naming server's path-lock manager provides the global discipline across
// servers.
type Server struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Server rooted at root, which must already exist as a
// directory.
func New(root string) (*Server, error) {
	const op = "storage.New"
	info, err := os.Stat(root)
	if err != nil {
		return nil, derrors.E(op, derrors.NotFound, err)
	}
	if !info.IsDir() {
		return nil, derrors.E(op, derrors.IllegalArgument, derrors.Str(root+" is not a directory"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, derrors.E(op, err)
	}
	return &Server{root: abs, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the host directory this server exports.
func (s *Server) Root() string { return s.root }

func (s *Server) pathLock(rel string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[rel]
	if !ok {
		l = &sync.Mutex{}
		s.locks[rel] = l
	}
	return l
}

// hostPath maps a path's string form onto a host filesystem path strictly
// under root. Components are already guaranteed free of "/" and ":" by
// the path package; joining them under "/" first lets filepath.Join
// resolve any ".." component without climbing above root.
func (s *Server) hostPath(p path.Path) string {
	rel := filepath.Join(append([]string{string(filepath.Separator)}, p.Components()...)...)
	return filepath.Join(s.root, rel)
}

// Size returns the byte length of the regular file at p.
func (s *Server) Size(p path.Path) (int64, error) {
	const op = "storage.Size"
	info, err := os.Stat(s.hostPath(p))
	if err != nil {
		return 0, derrors.E(op, derrors.NotFound, err)
	}
	if info.IsDir() {
		return 0, derrors.E(op, derrors.NotFound, derrors.Str(p.String()+" is a directory"))
	}
	return info.Size(), nil
}

// Read returns exactly length bytes from p starting at offset.
func (s *Server) Read(p path.Path, offset int64, length int) ([]byte, error) {
	const op = "storage.Read"
	if offset < 0 || length < 0 {
		return nil, derrors.E(op, derrors.Bounds, derrors.Str("negative offset or length"))
	}
	lock := s.pathLock(p.String())
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(s.hostPath(p))
	if err != nil {
		return nil, derrors.E(op, derrors.NotFound, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, derrors.E(op, err)
	}
	if info.IsDir() {
		return nil, derrors.E(op, derrors.NotFound, derrors.Str(p.String()+" is a directory"))
	}
	if offset+int64(length) > info.Size() {
		return nil, derrors.E(op, derrors.Bounds, derrors.Str("read past end of file"))
	}

	buf := make([]byte, length)
	if length > 0 {
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return nil, derrors.E(op, err)
		}
	}
	return buf, nil
}

// Write writes data to p starting at offset. If offset is past the
// current end of file, the gap is zero-filled; no truncation is
// performed when data is shorter than the existing file (overwrite in
// place, per the chosen write semantics).
func (s *Server) Write(p path.Path, offset int64, data []byte) error {
	const op = "storage.Write"
	if offset < 0 {
		return derrors.E(op, derrors.Bounds, derrors.Str("negative offset"))
	}
	if data == nil {
		return derrors.E(op, derrors.NullArgument, derrors.Str("write data must not be nil"))
	}
	lock := s.pathLock(p.String())
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(s.hostPath(p), os.O_RDWR, 0o644)
	if err != nil {
		return derrors.E(op, derrors.NotFound, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return derrors.E(op, err)
	}
	if info.IsDir() {
		return derrors.E(op, derrors.NotFound, derrors.Str(p.String()+" is a directory"))
	}
	if offset > info.Size() {
		if err := f.Truncate(offset); err != nil {
			return derrors.E(op, err)
		}
	}
	if len(data) > 0 {
		if _, err := f.WriteAt(data, offset); err != nil {
			return derrors.E(op, err)
		}
	}
	return nil
}

// Create creates an empty regular file at p, along with any missing
// ancestor directories. It returns false (not an error) if p already
// exists or a host I/O step fails, and fails illegal-argument if p is
// root.
func (s *Server) Create(p path.Path) (bool, error) {
	const op = "storage.Create"
	if p.IsRoot() {
		return false, derrors.E(op, derrors.IllegalArgument, derrors.Str("cannot create root"))
	}
	lock := s.pathLock(p.String())
	lock.Lock()
	defer lock.Unlock()

	host := s.hostPath(p)
	if _, err := os.Stat(host); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(host), 0o755); err != nil {
		log.Error.Printf("storage.Create: mkdir %s: %v", filepath.Dir(host), err)
		return false, nil
	}
	f, err := os.OpenFile(host, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error.Printf("storage.Create: create %s: %v", host, err)
		return false, nil
	}
	f.Close()
	return true, nil
}

// Delete removes the file or directory subtree at p. It returns false if
// p does not exist, and fails on root.
func (s *Server) Delete(p path.Path) (bool, error) {
	const op = "storage.Delete"
	if p.IsRoot() {
		return false, derrors.E(op, derrors.IllegalArgument, derrors.Str("cannot delete root"))
	}
	lock := s.pathLock(p.String())
	lock.Lock()
	defer lock.Unlock()

	host := s.hostPath(p)
	info, err := os.Stat(host)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, derrors.E(op, err)
	}
	if info.IsDir() {
		if err := os.RemoveAll(host); err != nil {
			return false, derrors.E(op, err)
		}
		return true, nil
	}
	if err := os.Remove(host); err != nil {
		return false, derrors.E(op, err)
	}
	return true, nil
}

// List returns every regular file under the server's root, relative to
// root, for use in the startup registration handshake.
func (s *Server) List() ([]path.Path, error) {
	return path.List(s.root)
}

// PruneEmptyAncestors removes p's parent directory, and then that
// directory's parent, and so on, stopping at the first non-empty
// directory or at root (which is never removed). It is called after a
// duplicate path from the registration handshake has been deleted
// locally, so a storage server doesn't accumulate empty directories left
// over from files another server claimed first.
func (s *Server) PruneEmptyAncestors(p path.Path) error {
	for {
		parent, err := p.Parent()
		if err != nil || parent.IsRoot() {
			return nil
		}
		host := s.hostPath(parent)
		entries, err := os.ReadDir(host)
		if err != nil {
			return derrors.E("storage.PruneEmptyAncestors", err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(host); err != nil {
			return derrors.E("storage.PruneEmptyAncestors", err)
		}
		p = parent
	}
}

// Copy fetches p in full from a remote Read interface reachable at
// sourceAddr, stores it locally (truncating any prior content), and
// verifies the transfer with a BLAKE2b digest taken before and after the
// copy. It returns an error unless the replica ends up byte-identical to
// the source.
func (s *Server) Copy(p path.Path, sourceAddr string) error {
	const op = "storage.Copy"
	if sourceAddr == "" {
		return derrors.E(op, derrors.NullArgument, derrors.Str("copy source address must not be empty"))
	}
	client, err := rpctransport.Dial(sourceAddr)
	if err != nil {
		return derrors.E(op, derrors.Transport, err)
	}
	defer client.Close()

	var sizeReply rpcapi.SizeReply
	if err := client.Call("Read.Size", &rpcapi.SizeArgs{Path: p}, &sizeReply); err != nil {
		return derrors.E(op, derrors.Transport, err)
	}

	var readReply rpcapi.ReadReply
	readArgs := &rpcapi.ReadArgs{Path: p, Offset: 0, Length: int(sizeReply.Size)}
	if err := client.Call("Read.Read", readArgs, &readReply); err != nil {
		return derrors.E(op, derrors.Transport, err)
	}
	wantSum := blake2b.Sum256(readReply.Data)

	if _, err := s.Delete(p); err != nil {
		return derrors.E(op, err)
	}
	if _, err := s.Create(p); err != nil {
		return derrors.E(op, err)
	}
	if err := s.Write(p, 0, readReply.Data); err != nil {
		return derrors.E(op, err)
	}

	got, err := s.Read(p, 0, len(readReply.Data))
	if err != nil {
		return derrors.E(op, err)
	}
	gotSum := blake2b.Sum256(got)
	if !bytes.Equal(wantSum[:], gotSum[:]) {
		return derrors.E(op, derrors.IO, derrors.Str("copy digest mismatch for "+p.String()))
	}
	return nil
}
