package keyspace

import "sort"

// Hash operations follow the same "behave as if absent" rule as List for
// read-only access; HSet/HMSet are the creating operations and discard a
// wrong-typed key the same way LPush/RPush do.

// HSet inserts or overwrites field in the hash at key, returning true if
// the field was newly created.
func (k *Keyspace) HSet(key, field, value string) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := hashForWriteLocked(s, key)
	_, existed := e.hash[field]
	e.hash[field] = value
	return !existed
}

// HMSet sets multiple fields atomically; it always succeeds per spec.md
// §4.3's note that the multi-field variant always reports success.
func (k *Keyspace) HMSet(key string, pairs map[string]string) {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := hashForWriteLocked(s, key)
	for field, value := range pairs {
		e.hash[field] = value
	}
}

// hashForWriteLocked returns the hash entry for key, creating (or
// replacing a wrong-typed value with) a fresh empty hash if needed. Caller
// must already hold s.mu for writing.
func hashForWriteLocked(s *shard, key string) *entry {
	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindHash {
		e = &entry{kind: KindHash, hash: make(map[string]string)}
		s.entries[key] = e
		delete(s.deadlines, key)
	}
	return e
}

// HGet returns field's value from the hash at key. ok is false if key is
// absent, its deadline has passed, it is a different variant, or field is
// unset — all of which the dispatcher collapses into the same NullBulk
// reply per spec.md §9.
func (k *Keyspace) HGet(key, field string) (string, bool) {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindHash {
		return "", false
	}
	v, ok := e.hash[field]
	return v, ok
}

// HExists reports whether field is set in the hash at key.
func (k *Keyspace) HExists(key, field string) bool {
	_, ok := k.HGet(key, field)
	return ok
}

// HDel removes field from the hash at key, enforcing I2 (deleting the key
// entirely once its last field is gone), and reports whether it existed.
func (k *Keyspace) HDel(key, field string) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindHash {
		return false
	}
	if _, ok := e.hash[field]; !ok {
		return false
	}

	delete(e.hash, field)
	if len(e.hash) == 0 {
		delete(s.entries, key)
		delete(s.deadlines, key)
	}
	return true
}

// HGetAll returns every field/value pair in the hash at key, sorted by
// field name so that HKeys/HVals called back-to-back without an
// intervening mutation project the same order as this call, per spec.md
// §4.2.
func (k *Keyspace) HGetAll(key string) []HashField {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindHash {
		return nil
	}

	fields := make([]string, 0, len(e.hash))
	for f := range e.hash {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]HashField, len(fields))
	for i, f := range fields {
		out[i] = HashField{Field: f, Value: e.hash[f]}
	}
	return out
}

// HKeys returns the field names in the hash at key, in the same order
// HGetAll would project them.
func (k *Keyspace) HKeys(key string) []string {
	all := k.HGetAll(key)
	out := make([]string, len(all))
	for i, f := range all {
		out[i] = f.Field
	}
	return out
}

// HVals returns the values in the hash at key, in the same order HGetAll
// would project them.
func (k *Keyspace) HVals(key string) []string {
	all := k.HGetAll(key)
	out := make([]string, len(all))
	for i, f := range all {
		out[i] = f.Value
	}
	return out
}

// HLen returns the number of fields in the hash at key, or 0 if key is
// absent or not a hash.
func (k *Keyspace) HLen(key string) int64 {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindHash {
		return 0
	}
	return int64(len(e.hash))
}
