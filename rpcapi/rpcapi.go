// Package rpcapi defines the wire-level contracts shared by the naming
// server and the storage server. net/rpc requires exported methods of the
// form func (t *T) Method(args *ArgsType, reply *ReplyType) error, so every
// operation gets a concrete Args/Reply pair here rather than a plain Go
// function signature; the interfaces alongside them document the RPC
// methods each side expects to find registered under the named service.
package rpcapi

import (
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
)

// PathArgs carries a single path, the argument shape for operations that
// take nothing else.
type PathArgs struct {
	Path path.Path
}

// BoolReply carries a single boolean result.
type BoolReply struct {
	Ok bool
}

// StringsReply carries a list of names, used by List.
type StringsReply struct {
	Values []string
}

// LockArgs requests a shared or exclusive lock on Path.
type LockArgs struct {
	Path      path.Path
	Exclusive bool
}

// LockReply is empty; Lock either succeeds or returns an error.
type LockReply struct{}

// GetStorageArgs requests the address of a storage server holding a
// replica of Path.
type GetStorageArgs struct {
	Path path.Path
}

// GetStorageReply carries the address of the Read interface of a storage
// server chosen to serve Path.
type GetStorageReply struct {
	ReadAddr string
}

// RegisterArgs is sent by a storage server to announce itself to the
// naming server. ReadAddr and CommandAddr are the host:port pairs at which
// the storage server's Read and Command interfaces, respectively, can be
// reached. Paths lists every file the storage server holds, relative to
// its root.
type RegisterArgs struct {
	ReadAddr    string
	CommandAddr string
	Paths       []path.Path
}

// RegisterReply lists the paths the naming server already knows about
// under a different storage server; the registering server is expected to
// delete its local copies of these paths.
type RegisterReply struct {
	Duplicates []path.Path
}

// SizeArgs requests the length in bytes of a file.
type SizeArgs struct {
	Path path.Path
}

// SizeReply carries the size in bytes.
type SizeReply struct {
	Size int64
}

// ReadArgs requests a byte range from a file.
type ReadArgs struct {
	Path   path.Path
	Offset int64
	Length int
}

// ReadReply carries the bytes read.
type ReadReply struct {
	Data []byte
}

// WriteArgs requests that Data be written to Path at Offset, growing the
// file and zero-filling any gap if Offset is past the current end.
type WriteArgs struct {
	Path   path.Path
	Offset int64
	Data   []byte
}

// WriteReply is empty; Write either succeeds or returns an error.
type WriteReply struct{}

// CopyArgs requests that the command server fetch Path from the storage
// server whose Read interface is reachable at SourceReadAddr and store it
// locally, overwriting any existing file at Path.
type CopyArgs struct {
	Path           path.Path
	SourceReadAddr string
}

// CopyReply is empty; Copy either succeeds or returns an error.
type CopyReply struct{}

// Service is the naming server's client-facing RPC interface, registered
// under the name "Service". It does not expose Lock or Unlock, and no
// registered method takes LockArgs or returns LockReply: each operation
// below acquires and releases the path locks it needs on the caller's
// behalf, and a client cannot hold a path lock across calls.
type Service interface {
	IsDirectory(args *PathArgs, reply *BoolReply) error
	List(args *PathArgs, reply *StringsReply) error
	CreateFile(args *PathArgs, reply *BoolReply) error
	CreateDirectory(args *PathArgs, reply *BoolReply) error
	Delete(args *PathArgs, reply *BoolReply) error
	GetStorage(args *GetStorageArgs, reply *GetStorageReply) error
}

// Registration is the naming server's storage-facing RPC interface,
// registered under the name "Registration".
type Registration interface {
	Register(args *RegisterArgs, reply *RegisterReply) error
}

// Read is a storage server's client-facing, replica-safe RPC interface,
// registered under the name "Read" and reachable at the address
// GetStorage returns. Write lives here rather than on Command because a
// client reads and writes through the same replica handle it obtains
// from GetStorage; only the naming server ever dials Command.
type Read interface {
	Size(args *SizeArgs, reply *SizeReply) error
	Read(args *ReadArgs, reply *ReadReply) error
	Write(args *WriteArgs, reply *WriteReply) error
}

// Command is a storage server's mutating RPC interface, registered under
// the name "Command". Only the naming server dials Command, during
// create/delete and to fan out a new replica via Copy.
type Command interface {
	Create(args *PathArgs, reply *BoolReply) error
	Delete(args *PathArgs, reply *BoolReply) error
	Copy(args *CopyArgs, reply *CopyReply) error
}
