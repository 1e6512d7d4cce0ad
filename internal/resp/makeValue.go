package resp

import "fmt"

// MakeSimpleString construct SimpleString Value from string
func MakeSimpleString(s string) Value {
	return Value{
		Type:   TypeSimpleString,
		String: []byte(s),
	}
}

// MakeError construct Error Value from string
func MakeError(s string) Value {
	return Value{
		Type:   TypeError,
		String: []byte(s),
	}
}

// MakeErrorWrongNumberOfArguments construct Error Value that command had wrong number of arguments for command
func MakeErrorWrongNumberOfArguments(cmd string) Value {
	return MakeError(fmt.Sprintf("wrong number of arguments for %s command", cmd))
}

// MakeBulkString construct BulkString Value from string
func MakeBulkString(s string) Value {
	return Value{
		Type:   TypeBulkString,
		String: []byte(s),
	}
}

// MakeNilBulkString construct nil BulkSting Value
func MakeNilBulkString() Value {
	return Value{
		Type:   TypeBulkString,
		IsNull: true,
	}
}

// MakeInteger construct Integer Value from int64
func MakeInteger(n int64) Value {
	return Value{
		Type:    TypeInteger,
		Integer: n,
	}
}

// MakeArray creates a standard RESP array containing the provided elements
func MakeArray(values []Value) Value {
	return Value{
		Type:  TypeArray,
		Array: values,
	}
}

// MakeEmptyArray creates a RESP array with zero elements, distinct from a
// null array. KEYS/HGETALL/HKEYS/HVALS build their replies with
// MakeBulkStringArray, which yields this same empty array on an absent key.
func MakeEmptyArray() Value {
	return Value{
		Type:  TypeArray,
		Array: []Value{},
	}
}

// MakeBulkStringArray wraps a slice of strings as a RESP array of bulk
// strings. Used by KEYS, HGETALL, HKEYS and HVALS.
func MakeBulkStringArray(strs []string) Value {
	values := make([]Value, len(strs))
	for i, s := range strs {
		values[i] = MakeBulkString(s)
	}
	return MakeArray(values)
}

// MakeErrorf constructs an Error Value from a format string, mirroring the
// convention used by MakeErrorWrongNumberOfArguments.
func MakeErrorf(format string, args ...any) Value {
	return MakeError(fmt.Sprintf(format, args...))
}
