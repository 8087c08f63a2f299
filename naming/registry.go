package naming

import (
	"math/rand"
	"sync"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
)

// Registry is the set of storage servers known to the naming server. A
// command-stub address may appear at most once; re-registration is
// rejected.
type Registry struct {
	mu        sync.Mutex
	records   []Replica
	byRead    map[string]bool
	byCommand map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byRead:    make(map[string]bool),
		byCommand: make(map[string]bool),
	}
}

// Add inserts a storage-server record. It fails already-registered if
// either address has been seen before.
func (r *Registry) Add(rec Replica) error {
	const op = "naming.Registry.Add"
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byRead[rec.ReadAddr] || r.byCommand[rec.CommandAddr] {
		return errors.E(op, errors.AlreadyRegistered, errors.Str(rec.ReadAddr))
	}
	r.records = append(r.records, rec)
	r.byRead[rec.ReadAddr] = true
	r.byCommand[rec.CommandAddr] = true
	return nil
}

// All returns a snapshot of every registered storage-server record.
func (r *Registry) All() []Replica {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Replica, len(r.records))
	copy(out, r.records)
	return out
}

// Count returns the number of registered storage servers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Random returns a uniformly-chosen registered storage-server record. It
// fails illegal-state if the registry is empty.
func (r *Registry) Random(rng *rand.Rand) (Replica, error) {
	const op = "naming.Registry.Random"
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return Replica{}, errors.E(op, errors.IllegalState, errors.Str("no storage servers registered"))
	}
	return r.records[rng.Intn(len(r.records))], nil
}

// notHolding returns a registered storage-server record whose command
// address is not among held, or false if every registered server already
// holds a replica.
func (r *Registry) notHolding(held map[string]bool, rng *rand.Rand) (Replica, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []Replica
	for _, rec := range r.records {
		if !held[rec.CommandAddr] {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return Replica{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}
