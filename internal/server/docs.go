package server

import (
	"strings"

	"github.com/lanternkv/lantern/internal/resp"
)

// commandMetadata mirrors the subset of Redis's COMMAND introspection
// reply this server bothers to expose: arity (negative meaning "at least
// |arity| tokens", matching the Redis convention) and a handful of
// informational flags. firstKey/lastKey/step describe where key names sit
// in the argument list; every command here takes exactly one key at
// position 1, except RENAME (keys at positions 1 and 2), DEL/UNLINK (which
// in principle could take several, though this dispatcher only ever reads
// the first) and KEYS/PING/ECHO/
// FLUSHALL/COMMAND, which touch no key at all.
type commandMetadata struct {
	arity    int
	flags    []string
	firstKey int
	lastKey  int
	step     int
}

var commandRegistry = map[string]commandMetadata{
	"PING":     {-1, []string{"fast"}, 0, 0, 0},
	"ECHO":     {2, []string{"fast"}, 0, 0, 0},
	"FLUSHALL": {1, []string{"write"}, 0, 0, 0},
	"SET":      {3, []string{"write", "denyoom"}, 1, 1, 1},
	"GET":      {2, []string{"readonly", "fast"}, 1, 1, 1},
	"KEYS":     {1, []string{"readonly"}, 0, 0, 0},
	"TYPE":     {2, []string{"readonly", "fast"}, 1, 1, 1},
	"DEL":      {-2, []string{"write"}, 1, -1, 1},
	"UNLINK":   {-2, []string{"write"}, 1, -1, 1},
	"EXPIRE":   {3, []string{"write", "fast"}, 1, 1, 1},
	"RENAME":   {3, []string{"write"}, 1, 2, 1},
	"LLEN":     {2, []string{"readonly", "fast"}, 1, 1, 1},
	"LPUSH":    {-3, []string{"write", "denyoom"}, 1, 1, 1},
	"RPUSH":    {-3, []string{"write", "denyoom"}, 1, 1, 1},
	"LPOP":     {2, []string{"write", "fast"}, 1, 1, 1},
	"RPOP":     {2, []string{"write", "fast"}, 1, 1, 1},
	"LREM":     {4, []string{"write"}, 1, 1, 1},
	"LINDEX":   {3, []string{"readonly"}, 1, 1, 1},
	"LSET":     {4, []string{"write"}, 1, 1, 1},
	"HSET":     {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"HGET":     {3, []string{"readonly", "fast"}, 1, 1, 1},
	"HEXISTS":  {3, []string{"readonly", "fast"}, 1, 1, 1},
	"HDEL":     {3, []string{"write", "fast"}, 1, 1, 1},
	"HGETALL":  {2, []string{"readonly"}, 1, 1, 1},
	"HKEYS":    {2, []string{"readonly"}, 1, 1, 1},
	"HVALS":    {2, []string{"readonly"}, 1, 1, 1},
	"HLEN":     {2, []string{"readonly", "fast"}, 1, 1, 1},
	"HMSET":    {-4, []string{"write", "denyoom"}, 1, 1, 1},
	"COMMAND":  {-1, []string{"loading", "stale"}, 0, 0, 0},
}

// commandDoc is the free-text documentation surfaced by "COMMAND DOCS".
type commandDoc struct {
	summary    string
	complexity string
	group      string
	since      string
}

var commandDocsRegistry = map[string]commandDoc{
	"PING":     {"Ping the server.", "O(1)", "connection", "1.0.0"},
	"ECHO":     {"Echo the given string.", "O(1)", "connection", "1.0.0"},
	"FLUSHALL": {"Remove every key from the keyspace.", "O(N)", "generic", "1.0.0"},
	"SET":      {"Set the string value of a key.", "O(1)", "string", "1.0.0"},
	"GET":      {"Get the value of a key.", "O(1)", "string", "1.0.0"},
	"KEYS":     {"List every key in the keyspace.", "O(N)", "generic", "1.0.0"},
	"TYPE":     {"Determine the type stored at a key.", "O(1)", "generic", "1.0.0"},
	"DEL":      {"Delete a key.", "O(1)", "generic", "1.0.0"},
	"UNLINK":   {"Delete a key.", "O(1)", "generic", "1.0.0"},
	"EXPIRE":   {"Set a key's time to live in seconds.", "O(1)", "generic", "1.0.0"},
	"RENAME":   {"Rename a key.", "O(1)", "generic", "1.0.0"},
	"LLEN":     {"Get the length of a list.", "O(1)", "list", "1.0.0"},
	"LPUSH":    {"Prepend one or more values to a list.", "O(N)", "list", "1.0.0"},
	"RPUSH":    {"Append one or more values to a list.", "O(N)", "list", "1.0.0"},
	"LPOP":     {"Remove and return the first element of a list.", "O(1)", "list", "1.0.0"},
	"RPOP":     {"Remove and return the last element of a list.", "O(1)", "list", "1.0.0"},
	"LREM":     {"Remove elements from a list.", "O(N)", "list", "1.0.0"},
	"LINDEX":   {"Get an element from a list by its index.", "O(N)", "list", "1.0.0"},
	"LSET":     {"Set the value of an element in a list by its index.", "O(N)", "list", "1.0.0"},
	"HSET":     {"Set the value of a hash field.", "O(1)", "hash", "1.0.0"},
	"HGET":     {"Get the value of a hash field.", "O(1)", "hash", "1.0.0"},
	"HEXISTS":  {"Determine if a hash field exists.", "O(1)", "hash", "1.0.0"},
	"HDEL":     {"Delete a hash field.", "O(1)", "hash", "1.0.0"},
	"HGETALL":  {"Get every field and value in a hash.", "O(N)", "hash", "1.0.0"},
	"HKEYS":    {"Get every field name in a hash.", "O(N)", "hash", "1.0.0"},
	"HVALS":    {"Get every value in a hash.", "O(N)", "hash", "1.0.0"},
	"HLEN":     {"Get the number of fields in a hash.", "O(1)", "hash", "1.0.0"},
	"HMSET":    {"Set multiple hash fields at once.", "O(N)", "hash", "1.0.0"},
	"COMMAND":  {"Get array of command details.", "O(N)", "server", "1.0.0"},
}

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string) resp.Value {
	meta := commandRegistry[name]
	return resp.MakeArray([]resp.Value{
		resp.MakeBulkString(name),
		resp.MakeInteger(int64(meta.arity)),
		makeFlagsArray(meta.flags),
		resp.MakeInteger(int64(meta.firstKey)),
		resp.MakeInteger(int64(meta.lastKey)),
		resp.MakeInteger(int64(meta.step)),
	})
}

func getAllCommands() resp.Value {
	cmdArray := make([]resp.Value, 0, len(commandRegistry))
	for name := range commandRegistry {
		cmdArray = append(cmdArray, makeInfoCmdArray(name))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsDocs returns documentation for the named commands, or every
// command if none are named.
// Format: [Name, [summary, val, since, val, group, val, complexity, val], Name, [...]]
func getCommandsDocs(args []resp.Value) resp.Value {
	var targets []string
	if len(args) == 0 {
		targets = make([]string, 0, len(commandDocsRegistry))
		for name := range commandDocsRegistry {
			targets = append(targets, name)
		}
	} else {
		targets = make([]string, len(args))
		for i, a := range args {
			targets[i] = string(a.String)
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)
	for _, name := range targets {
		doc, ok := commandDocsRegistry[name]
		if !ok {
			continue
		}
		result = append(result, resp.MakeBulkString(name))
		result = append(result, resp.MakeArray([]resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(doc.summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(doc.since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(doc.group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(doc.complexity),
		}))
	}
	return resp.MakeArray(result)
}

// commandDocs backs the COMMAND handler: "COMMAND" with no sub-args lists
// every registered command, "COMMAND DOCS [name...]" returns documentation.
func commandDocs(ctx *context) resp.Value {
	if len(ctx.args) > 0 && strings.ToUpper(string(ctx.args[0].String)) == "DOCS" {
		return getCommandsDocs(ctx.args[1:])
	}
	return getAllCommands()
}
