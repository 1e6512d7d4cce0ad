package keyspace

// List operations that only observe a key (LLen, LPop/RPop, LRem, LIndex,
// LSet) treat a non-List key exactly as if it were absent, per spec.md
// §4.2. LPush/RPush are creating operations: a non-List key in the way is
// discarded and replaced with a fresh list, which is the only way to
// satisfy "behave as if absent" while still creating a list there.

// LLen returns the length of the list at key, or 0 if key is absent or not
// a list.
func (k *Keyspace) LLen(key string) int64 {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindList {
		return 0
	}
	return int64(len(e.list))
}

// LPush prepends values in argument order, so the last argument ends up at
// index 0, and returns the new length.
func (k *Keyspace) LPush(key string, values ...string) int64 {
	return k.push(key, values, true)
}

// RPush appends values in argument order and returns the new length.
func (k *Keyspace) RPush(key string, values ...string) int64 {
	return k.push(key, values, false)
}

func (k *Keyspace) push(key string, values []string, left bool) int64 {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindList {
		e = &entry{kind: KindList}
		s.entries[key] = e
		delete(s.deadlines, key)
	}

	if left {
		prefix := make([]string, len(values))
		for i, v := range values {
			prefix[len(values)-1-i] = v
		}
		e.list = append(prefix, e.list...)
	} else {
		e.list = append(e.list, values...)
	}

	return int64(len(e.list))
}

// LPop removes and returns the first element of the list at key.
func (k *Keyspace) LPop(key string) (string, bool) {
	return k.pop(key, true)
}

// RPop removes and returns the last element of the list at key.
func (k *Keyspace) RPop(key string) (string, bool) {
	return k.pop(key, false)
}

func (k *Keyspace) pop(key string, left bool) (string, bool) {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindList || len(e.list) == 0 {
		return "", false
	}

	var v string
	if left {
		v = e.list[0]
		e.list = e.list[1:]
	} else {
		v = e.list[len(e.list)-1]
		e.list = e.list[:len(e.list)-1]
	}

	if len(e.list) == 0 {
		delete(s.entries, key)
		delete(s.deadlines, key)
	}

	return v, true
}

// LRem removes occurrences of value from the list at key: head-to-tail up
// to count if count > 0, tail-to-head up to -count if count < 0, or all
// occurrences if count == 0. It returns the number removed.
func (k *Keyspace) LRem(key string, count int64, value string) int64 {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindList {
		return 0
	}

	var removed int64
	switch {
	case count == 0:
		e.list, removed = removeMatching(e.list, value, int64(len(e.list)))
	case count > 0:
		e.list, removed = removeMatching(e.list, value, count)
	default:
		e.list, removed = removeMatchingFromTail(e.list, value, -count)
	}

	if len(e.list) == 0 {
		delete(s.entries, key)
		delete(s.deadlines, key)
	}

	return removed
}

// removeMatching filters list in place, removing up to limit head-to-tail
// occurrences of value.
func removeMatching(list []string, value string, limit int64) ([]string, int64) {
	out := list[:0]
	var removed int64
	for _, v := range list {
		if v == value && removed < limit {
			removed++
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// removeMatchingFromTail removes up to limit occurrences of value scanning
// tail-to-head, preserving the relative order of everything kept.
func removeMatchingFromTail(list []string, value string, limit int64) ([]string, int64) {
	drop := make(map[int]bool, limit)
	var removed int64
	for i := len(list) - 1; i >= 0 && removed < limit; i-- {
		if list[i] == value {
			drop[i] = true
			removed++
		}
	}
	if removed == 0 {
		return list, 0
	}

	out := make([]string, 0, int64(len(list))-removed)
	for i, v := range list {
		if !drop[i] {
			out = append(out, v)
		}
	}
	return out, removed
}

// LIndex returns the element at index (negative counts from the tail), or
// absent if key is missing, not a list, or index is out of range.
func (k *Keyspace) LIndex(key string, index int64) (string, bool) {
	e := k.shardFor(key).get(key)
	if e == nil || e.kind != KindList {
		return "", false
	}
	i := normalizeIndex(index, int64(len(e.list)))
	if i < 0 || i >= int64(len(e.list)) {
		return "", false
	}
	return e.list[i], true
}

// LSet overwrites the element at index, reporting failure if key is
// missing, not a list, or index is out of range.
func (k *Keyspace) LSet(key string, index int64, value string) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	e, ok := s.entries[key]
	if !ok || e.kind != KindList {
		return false
	}
	i := normalizeIndex(index, int64(len(e.list)))
	if i < 0 || i >= int64(len(e.list)) {
		return false
	}
	e.list[i] = value
	return true
}

func normalizeIndex(index, length int64) int64 {
	if index < 0 {
		return length + index
	}
	return index
}
