package naming

import (
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
)

// rwLock is a fair shared/exclusive lock: requests are granted strictly
// in arrival order, so a shared request that arrives behind a queued
// exclusive request waits behind it (writers cannot be starved by a
// steady stream of readers).
type rwLock struct {
	mu      sync.Mutex
	readers int
	writer  bool
	queue   []*waiter
}

type waiter struct {
	exclusive bool
	done      chan struct{}
}

func (l *rwLock) Lock(exclusive bool) {
	l.mu.Lock()
	w := &waiter{exclusive: exclusive, done: make(chan struct{})}
	l.queue = append(l.queue, w)
	l.pump()
	l.mu.Unlock()
	<-w.done
}

// pump grants waiters from the front of the queue for as long as doing
// so is legal, stopping immediately after granting an exclusive waiter so
// that nothing queued behind it jumps ahead while it holds the lock.
func (l *rwLock) pump() {
	for len(l.queue) > 0 {
		w := l.queue[0]
		if l.writer {
			return
		}
		if w.exclusive {
			if l.readers > 0 {
				return
			}
			l.writer = true
			l.queue = l.queue[1:]
			close(w.done)
			return
		}
		l.readers++
		l.queue = l.queue[1:]
		close(w.done)
	}
}

func (l *rwLock) Unlock(exclusive bool) {
	l.mu.Lock()
	if exclusive {
		l.writer = false
	} else {
		l.readers--
	}
	l.pump()
	l.mu.Unlock()
}

// entry is a reference-counted rwLock, so idle path entries can be
// dropped from the Locker's map instead of accumulating forever.
type entry struct {
	rw   rwLock
	refs int
}

// Locker is the path-lock manager of §4.D: ancestor-chain shared/
// exclusive locking, access-count-triggered asynchronous replication, and
// exclusive-lock replica invalidation.
type Locker struct {
	tree      *Tree
	registry  *Registry
	threshold int

	mu     sync.Mutex
	rng    *rand.Rand
	active map[string]*entry
}

// NewLocker creates a Locker over tree, consulting registry when
// replication decisions are made. threshold is the number of shared
// accesses, since a file's last replication event, that triggers an
// asynchronous replication to an additional storage server.
func NewLocker(tree *Tree, registry *Registry, threshold int, seed int64) *Locker {
	return &Locker{
		tree:      tree,
		registry:  registry,
		threshold: threshold,
		rng:       rand.New(rand.NewSource(seed)),
		active:    make(map[string]*entry),
	}
}

func (l *Locker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.active[key]
	if !ok {
		e = &entry{}
		l.active[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.active, key)
	}
}

// getEntry returns the entry currently registered for key, without
// affecting its reference count. It is used by Unlock, which relies on
// the matching Lock call having kept the entry alive.
func (l *Locker) getEntry(key string) (*entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.active[key]
	return e, ok
}

// Lock acquires p in mode exclusive, after first acquiring shared locks
// on every proper ancestor of p in root-to-leaf order. It fails not-found
// if p is absent from the tree once the ancestor chain is held, in which
// case any ancestor locks already taken are released before returning.
// On success, each shared lock taken on the file at p updates its access
// counter and may schedule asynchronous replication; each exclusive lock
// taken on the file at p invalidates non-primary replicas before
// returning. Unlock(p, exclusive) releases exactly the locks this call
// acquired by re-deriving the same ancestor chain from p; it need not be
// called from the same goroutine.
func (l *Locker) Lock(p path.Path, exclusive bool) error {
	const op = "naming.Locker.Lock"
	ancestors := p.Ancestors()
	for _, a := range ancestors {
		key := a.String()
		e := l.acquireEntry(key)
		e.rw.Lock(false)
	}

	if !l.tree.Exists(p) {
		for i := len(ancestors) - 1; i >= 0; i-- {
			ak := ancestors[i].String()
			ae, _ := l.getEntry(ak)
			ae.rw.Unlock(false)
			l.releaseEntry(ak, ae)
		}
		return errors.E(op, p.String(), errors.NotFound)
	}

	key := p.String()
	e := l.acquireEntry(key)
	e.rw.Lock(exclusive)

	if isDir, err := l.tree.IsDirectory(p); err == nil && !isDir {
		if exclusive {
			l.invalidateReplicas(p)
		} else {
			l.onSharedAccess(p)
		}
	}
	return nil
}

// Unlock releases the locks acquired by the matching Lock(p, exclusive)
// call: p itself, then its ancestors from leaf to root.
func (l *Locker) Unlock(p path.Path, exclusive bool) error {
	const op = "naming.Locker.Unlock"
	key := p.String()
	e, ok := l.getEntry(key)
	if !ok {
		return errors.E(op, p.String(), errors.IllegalState, errors.Str("path is not locked"))
	}
	e.rw.Unlock(exclusive)
	l.releaseEntry(key, e)

	ancestors := p.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		ak := ancestors[i].String()
		ae, ok := l.getEntry(ak)
		if !ok {
			continue
		}
		ae.rw.Unlock(false)
		l.releaseEntry(ak, ae)
	}
	return nil
}

func (l *Locker) onSharedAccess(p path.Path) {
	count, ok := l.tree.bumpAccessCount(p)
	if !ok || count < l.threshold {
		return
	}
	l.tree.resetAccessCount(p)
	go l.replicate(p)
}

func (l *Locker) replicate(p path.Path) {
	replicas, err := l.tree.ReplicasOf(p)
	if err != nil {
		return
	}
	held := make(map[string]bool, len(replicas))
	for _, r := range replicas {
		held[r.CommandAddr] = true
	}
	target, ok := l.registry.notHolding(held, l.rng)
	if !ok {
		return
	}
	source := replicas[l.rng.Intn(len(replicas))]

	client, err := rpctransport.Dial(target.CommandAddr)
	if err != nil {
		log.Error.Printf("naming: replicate %s to %s: dial: %v", p, target.CommandAddr, err)
		return
	}
	defer client.Close()

	args := &rpcapi.CopyArgs{Path: p, SourceReadAddr: source.ReadAddr}
	var reply rpcapi.CopyReply
	if err := client.Call("Command.Copy", args, &reply); err != nil {
		log.Error.Printf("naming: replicate %s to %s: copy: %v", p, target.CommandAddr, err)
		return
	}
	if err := l.tree.addReplica(p, target); err != nil {
		log.Error.Printf("naming: replicate %s: record replica: %v", p, err)
	}
}

func (l *Locker) invalidateReplicas(p path.Path) {
	dropped, err := l.tree.shrinkToOne(p)
	if err != nil || len(dropped) == 0 {
		return
	}
	var group errgroup.Group
	for _, r := range dropped {
		r := r
		group.Go(func() error {
			client, err := rpctransport.Dial(r.CommandAddr)
			if err != nil {
				return err
			}
			defer client.Close()
			var reply rpcapi.BoolReply
			return client.Call("Command.Delete", &rpcapi.PathArgs{Path: p}, &reply)
		})
	}
	if err := group.Wait(); err != nil {
		log.Error.Printf("naming: invalidate replicas of %s: %v", p, err)
	}
}
