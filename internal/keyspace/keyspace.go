// Package keyspace is the Datastore: a concurrent, typed keyspace binding
// each key to exactly one of {String, List, Hash}, with optional per-key
// expiration, general key operations, and binary snapshot/restore.
//
// The keyspace is partitioned into a fixed number of shards, each an
// independently-locked map, rather than a single global mutex: spec.md §5
// permits partitioning the lock per store as long as cross-store
// invariants still hold, and Rename is the one operation here that can
// touch two shards — it always locks the lower shard index first to avoid
// deadlocking against a concurrent rename of the same two keys in the
// opposite direction.
package keyspace

import (
	"errors"
	"math/bits"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Keyspace is the shared, owned value threaded through the dispatcher and
// every connection handler — there is exactly one per process, passed by
// reference, with all synchronization internal to it.
type Keyspace struct {
	shards    []*shard
	shardMask uint64
}

// New creates a Keyspace with shardCount independently-locked shards.
// shardCount must be a power of two, at most 64.
func New(shardCount uint) (*Keyspace, error) {
	if bits.OnesCount(shardCount) != 1 {
		return nil, errors.New("keyspace: shard count must be a power of 2")
	}
	if shardCount > 64 {
		return nil, errors.New("keyspace: shard count must be <= 64")
	}

	ks := &Keyspace{
		shards:    make([]*shard, shardCount),
		shardMask: uint64(shardCount - 1),
	}
	for i := range ks.shards {
		ks.shards[i] = newShard()
	}
	return ks, nil
}

func (k *Keyspace) shardIndex(key string) uint64 {
	return xxhash.Sum64String(key) & k.shardMask
}

func (k *Keyspace) shardFor(key string) *shard {
	return k.shards[k.shardIndex(key)]
}

// FlushAll clears every key, value, and deadline across all shards.
func (k *Keyspace) FlushAll() {
	for _, s := range k.shards {
		s.mu.Lock()
		s.entries = make(map[string]*entry)
		s.deadlines = make(map[string]int64)
		s.mu.Unlock()
	}
}

// Keys returns every live key across all shards, in unspecified order,
// lazily evicting any key whose deadline has passed along the way.
func (k *Keyspace) Keys() []string {
	var keys []string
	for _, s := range k.shards {
		s.mu.Lock()
		for key := range s.entries {
			s.evictIfExpired(key)
			if _, ok := s.entries[key]; ok {
				keys = append(keys, key)
			}
		}
		s.mu.Unlock()
	}
	return keys
}

// Type reports the variant bound to key: "string", "list", "hash", or
// "none" if key is absent or its deadline has passed.
func (k *Keyspace) Type(key string) string {
	e := k.shardFor(key).get(key)
	if e == nil {
		return "none"
	}
	return e.kind.String()
}

// Del removes key from whichever store holds it, along with its deadline,
// and reports whether it existed.
func (k *Keyspace) Del(key string) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	delete(s.deadlines, key)
	return true
}

// Expire sets key's deadline to now+seconds if key exists in any store,
// and reports whether it did.
func (k *Keyspace) Expire(key string, seconds int64) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.deadlines[key] = time.Now().Add(time.Duration(seconds) * time.Second).UnixNano()
	return true
}

// Rename moves oldKey's value and deadline onto newKey, overwriting
// whatever newKey held (per I4, no mixed-variant residue survives), and
// reports whether oldKey existed.
func (k *Keyspace) Rename(oldKey, newKey string) bool {
	oldIdx := k.shardIndex(oldKey)
	newIdx := k.shardIndex(newKey)

	if oldIdx == newIdx {
		s := k.shards[oldIdx]
		s.mu.Lock()
		defer s.mu.Unlock()
		return renameLocked(s, s, oldKey, newKey)
	}

	first, second := oldIdx, newIdx
	if first > second {
		first, second = second, first
	}
	k.shards[first].mu.Lock()
	defer k.shards[first].mu.Unlock()
	k.shards[second].mu.Lock()
	defer k.shards[second].mu.Unlock()

	return renameLocked(k.shards[oldIdx], k.shards[newIdx], oldKey, newKey)
}

// renameLocked performs the move once both the source and destination
// shard locks are held (they may be the same shard, locked once).
func renameLocked(src, dst *shard, oldKey, newKey string) bool {
	src.evictIfExpired(oldKey)
	e, ok := src.entries[oldKey]
	if !ok {
		return false
	}

	deadline, hadDeadline := src.deadlines[oldKey]

	delete(src.entries, oldKey)
	delete(src.deadlines, oldKey)

	dst.entries[newKey] = e
	if hadDeadline {
		dst.deadlines[newKey] = deadline
	} else {
		delete(dst.deadlines, newKey)
	}
	return true
}

// Set stores value as a String under key, discarding whatever value and
// deadline key previously held (enforcing I1) and clearing the deadline.
func (k *Keyspace) Set(key, value string) {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{kind: KindString, str: value}
	delete(s.deadlines, key)
}

// Get returns key's String value. ok is false if key is absent, its
// deadline has passed, or it is bound to a different variant — the
// dispatcher collapses all three to the same NullBulk reply.
func (k *Keyspace) Get(key string) (string, bool) {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindString {
		return "", false
	}
	return e.str, true
}

// SweepExpired samples up to limit keys per shard and evicts any that have
// passed their deadline, returning the average hit ratio across shards.
// This is the optional periodic sweep spec.md §9 allows to bound memory
// from cold expired keys; it is never required for correctness since every
// operation lazily evicts on access regardless.
func (k *Keyspace) SweepExpired(limit int) float64 {
	var total float64
	for _, s := range k.shards {
		total += s.sweepExpired(limit)
	}
	return total / float64(len(k.shards))
}
