package server

import (
	"testing"
	"time"

	"github.com/lanternkv/lantern/internal/config"
	"github.com/lanternkv/lantern/internal/keyspace"
	"github.com/lanternkv/lantern/internal/logger"
	"github.com/lanternkv/lantern/internal/resp"
	"github.com/stretchr/testify/assert"
)

// setupEngine creates a fresh engine with a clean keyspace for each test,
// background services disabled so tests are deterministic.
func setupEngine(t *testing.T) *Engine {
	t.Helper()
	ks, err := keyspace.New(1)
	if err != nil {
		t.Fatalf("keyspace.New: %v", err)
	}
	eng, err := NewEngine(ks, &config.Config{
		GC:          config.GCConfig{Enabled: false},
		Persistence: config.PersistenceConfig{RDB: config.RDBConfig{Enabled: false}},
	}, logger.New("debug", "console"))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

// cmd builds the token vector Engine.Execute expects: the command name
// followed by its arguments, all as bulk strings.
func cmd(name string, args ...string) []resp.Value {
	vals := make([]resp.Value, 1+len(args))
	vals[0] = resp.MakeBulkString(name)
	for i, a := range args {
		vals[i+1] = resp.MakeBulkString(a)
	}
	return vals
}

func TestPing(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("PING"))
	assert.Equal(t, byte(resp.TypeSimpleString), res.Type)
	assert.Equal(t, "PONG", string(res.String))
}

func TestEcho(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("ECHO", "hello"))
	assert.Equal(t, byte(resp.TypeSimpleString), res.Type)
	assert.Equal(t, "hello", string(res.String))
}

func TestEmptyCommand(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(nil)
	assert.Equal(t, byte(resp.TypeError), res.Type)
	assert.Contains(t, string(res.String), "Empty command")
}

func TestUnknownCommand(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("NOPE"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
	assert.Contains(t, string(res.String), "Unknown command 'NOPE'")
}

func TestArityViolation(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("SET", "onlykey"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
	assert.Contains(t, string(res.String), "SET")
}

func TestSetGetDel(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("GET", "mykey"))
	assert.True(t, res.IsNull)

	res = e.Execute(cmd("SET", "mykey", "myvalue"))
	assert.Equal(t, "OK", string(res.String))

	res = e.Execute(cmd("GET", "mykey"))
	assert.Equal(t, "myvalue", string(res.String))

	res = e.Execute(cmd("TYPE", "mykey"))
	assert.Equal(t, "string", string(res.String))

	res = e.Execute(cmd("DEL", "mykey"))
	assert.EqualValues(t, 1, res.Integer)

	res = e.Execute(cmd("DEL", "mykey"))
	assert.EqualValues(t, 0, res.Integer)

	res = e.Execute(cmd("GET", "mykey"))
	assert.True(t, res.IsNull)

	res = e.Execute(cmd("TYPE", "mykey"))
	assert.Equal(t, "none", string(res.String))
}

func TestUnlinkIsAnAliasForDel(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("SET", "k", "v"))
	res := e.Execute(cmd("UNLINK", "k"))
	assert.EqualValues(t, 1, res.Integer)
	assert.True(t, e.Execute(cmd("GET", "k")).IsNull)
}

func TestFlushAll(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("SET", "a", "1"))
	e.Execute(cmd("SET", "b", "2"))

	res := e.Execute(cmd("FLUSHALL"))
	assert.Equal(t, "OK", string(res.String))

	res = e.Execute(cmd("KEYS"))
	assert.Empty(t, res.Array)
}

func TestCommandListsEveryRegisteredCommand(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("COMMAND"))
	assert.Equal(t, byte(resp.TypeArray), res.Type)
	assert.Len(t, res.Array, len(arities))

	for _, entry := range res.Array {
		assert.Equal(t, byte(resp.TypeArray), entry.Type)
		assert.NotEmpty(t, entry.Array)
		name := string(entry.Array[0].String)
		assert.Contains(t, arities, name)
	}
}

func TestCommandDocsReturnsRequestedCommandsOnly(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("COMMAND", "DOCS", "GET", "SET"))
	assert.Equal(t, byte(resp.TypeArray), res.Type)
	assert.Len(t, res.Array, 4)
	assert.Equal(t, "GET", string(res.Array[0].String))
	assert.Equal(t, "SET", string(res.Array[2].String))
}

func TestKeys(t *testing.T) {
	e := setupEngine(t)
	res := e.Execute(cmd("KEYS"))
	assert.Equal(t, byte(resp.TypeArray), res.Type)
	assert.False(t, res.IsNull)
	assert.Empty(t, res.Array)

	e.Execute(cmd("SET", "a", "1"))
	e.Execute(cmd("SET", "b", "2"))
	res = e.Execute(cmd("KEYS"))
	assert.Len(t, res.Array, 2)
}

func TestExpireAndTypeNone(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("EXPIRE", "ghost", "10"))
	assert.Equal(t, byte(resp.TypeError), res.Type)

	e.Execute(cmd("SET", "k", "v"))
	res = e.Execute(cmd("EXPIRE", "k", "0"))
	assert.Equal(t, "OK", string(res.String))

	time.Sleep(5 * time.Millisecond)
	res = e.Execute(cmd("GET", "k"))
	assert.True(t, res.IsNull)

	res = e.Execute(cmd("TYPE", "k"))
	assert.Equal(t, "none", string(res.String))
}

func TestExpireBadSeconds(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("SET", "k", "v"))
	res := e.Execute(cmd("EXPIRE", "k", "not-a-number"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
}

func TestRename(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("RENAME", "ghost", "other"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
	assert.Contains(t, string(res.String), "RENAME failed")

	e.Execute(cmd("SET", "src", "v"))
	res = e.Execute(cmd("RENAME", "src", "dst"))
	assert.Equal(t, "OK", string(res.String))

	assert.Equal(t, "none", string(e.Execute(cmd("TYPE", "src")).String))
	assert.Equal(t, "string", string(e.Execute(cmd("TYPE", "dst")).String))
}

func TestListOperations(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("LPUSH", "mylist", "a", "b", "c"))
	assert.EqualValues(t, 3, res.Integer)

	res = e.Execute(cmd("LINDEX", "mylist", "0"))
	assert.Equal(t, "c", string(res.String))

	res = e.Execute(cmd("LINDEX", "mylist", "-1"))
	assert.Equal(t, "a", string(res.String))

	res = e.Execute(cmd("LLEN", "mylist"))
	assert.EqualValues(t, 3, res.Integer)

	res = e.Execute(cmd("RPUSH", "mylist", "d"))
	assert.EqualValues(t, 4, res.Integer)

	res = e.Execute(cmd("LPOP", "mylist"))
	assert.Equal(t, "c", string(res.String))

	res = e.Execute(cmd("RPOP", "mylist"))
	assert.Equal(t, "d", string(res.String))

	res = e.Execute(cmd("LSET", "mylist", "0", "z"))
	assert.Equal(t, "OK", string(res.String))
	assert.Equal(t, "z", string(e.Execute(cmd("LINDEX", "mylist", "0")).String))

	res = e.Execute(cmd("LSET", "mylist", "99", "z"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
}

func TestListEmptiesToAbsent(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("LPUSH", "l", "only"))
	res := e.Execute(cmd("LPOP", "l"))
	assert.Equal(t, "only", string(res.String))

	assert.EqualValues(t, 0, e.Execute(cmd("LLEN", "l")).Integer)
	assert.Equal(t, "none", string(e.Execute(cmd("TYPE", "l")).String))

	res = e.Execute(cmd("LPOP", "l"))
	assert.True(t, res.IsNull)
}

func TestLRem(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("RPUSH", "l", "a", "b", "a", "c", "a"))

	res := e.Execute(cmd("LREM", "l", "1", "a"))
	assert.EqualValues(t, 1, res.Integer)
	assert.EqualValues(t, 4, e.Execute(cmd("LLEN", "l")).Integer)

	res = e.Execute(cmd("LREM", "l", "0", "a"))
	assert.EqualValues(t, 2, res.Integer)
	assert.EqualValues(t, 2, e.Execute(cmd("LLEN", "l")).Integer)
}

func TestHashOperations(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("HSET", "h", "f1", "v1"))
	assert.EqualValues(t, 1, res.Integer)

	res = e.Execute(cmd("HSET", "h", "f1", "v1-updated"))
	assert.EqualValues(t, 0, res.Integer)

	res = e.Execute(cmd("HSET", "h", "f2", "v2"))
	assert.EqualValues(t, 1, res.Integer)

	res = e.Execute(cmd("HGETALL", "h"))
	assert.Len(t, res.Array, 4)
	assert.Equal(t, "f1", string(res.Array[0].String))
	assert.Equal(t, "v1-updated", string(res.Array[1].String))
	assert.Equal(t, "f2", string(res.Array[2].String))
	assert.Equal(t, "v2", string(res.Array[3].String))

	assert.EqualValues(t, 1, e.Execute(cmd("HEXISTS", "h", "f1")).Integer)
	assert.EqualValues(t, 0, e.Execute(cmd("HEXISTS", "h", "nope")).Integer)

	res = e.Execute(cmd("HKEYS", "h"))
	assert.Equal(t, []string{"f1", "f2"}, bulkStrings(res))

	res = e.Execute(cmd("HVALS", "h"))
	assert.Equal(t, []string{"v1-updated", "v2"}, bulkStrings(res))

	assert.EqualValues(t, 2, e.Execute(cmd("HLEN", "h")).Integer)

	res = e.Execute(cmd("HDEL", "h", "f1"))
	assert.EqualValues(t, 1, res.Integer)
	res = e.Execute(cmd("HDEL", "h", "f1"))
	assert.EqualValues(t, 0, res.Integer)
}

func TestHashBecomesAbsentWhenEmptied(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("HSET", "h", "only", "v"))
	e.Execute(cmd("HDEL", "h", "only"))
	assert.Equal(t, "none", string(e.Execute(cmd("TYPE", "h")).String))
	assert.EqualValues(t, 0, e.Execute(cmd("HLEN", "h")).Integer)
}

func TestHMSet(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(cmd("HMSET", "h", "f1", "v1", "f2", "v2"))
	assert.Equal(t, "OK", string(res.String))
	assert.EqualValues(t, 2, e.Execute(cmd("HLEN", "h")).Integer)

	res = e.Execute(cmd("HMSET", "h", "f1", "v1", "unpaired"))
	assert.Equal(t, byte(resp.TypeError), res.Type)
}

func TestTypeExclusivityAcrossOverwrite(t *testing.T) {
	e := setupEngine(t)
	e.Execute(cmd("LPUSH", "k", "a"))
	e.Execute(cmd("SET", "k", "now-a-string"))

	assert.Equal(t, "string", string(e.Execute(cmd("TYPE", "k")).String))
	assert.EqualValues(t, 0, e.Execute(cmd("LLEN", "k")).Integer)
}

func bulkStrings(v resp.Value) []string {
	out := make([]string, len(v.Array))
	for i, el := range v.Array {
		out[i] = string(el.String)
	}
	return out
}
