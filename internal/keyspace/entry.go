package keyspace

// Kind identifies which value variant an entry holds. A live key is bound
// to exactly one Kind at a time; switching kind (e.g. SET on a key that
// currently holds a list) discards whatever it held before rather than
// coexisting with it.
type Kind byte

const (
	KindString Kind = iota + 1
	KindList
	KindHash
)

// String renders the kind the way TYPE reports it, with "none" standing in
// for the zero value (used when a key is absent rather than bound).
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	default:
		return "none"
	}
}

// entry is the tagged-union value a key is bound to. Only the field named
// by kind is meaningful; this replaces a three-parallel-maps layout so a
// key can never simultaneously be a string, a list, and a hash.
type entry struct {
	kind Kind
	str  string
	list []string
	hash map[string]string
}

// HashField is one field/value pair from a hash, returned by HGetAll/HKeys/
// HVals in a stable, sorted-by-field order.
type HashField struct {
	Field string
	Value string
}
