package server

import (
	"strconv"

	"github.com/lanternkv/lantern/internal/resp"
)

// Command handlers. Each implements the reply shape spec.md §4.3 assigns
// to its row in the command table; arity is enforced once, generically, by
// Engine.Execute before any of these run, so a handler can assume it has
// at least as many tokens as its entry in the arity table promises.

func ping(ctx *context) resp.Value {
	return resp.MakeSimpleString("PONG")
}

func echo(ctx *context) resp.Value {
	return resp.MakeSimpleString(ctx.arg(0))
}

func flushall(ctx *context) resp.Value {
	ctx.ks.FlushAll()
	return resp.MakeSimpleString("OK")
}

func set(ctx *context) resp.Value {
	ctx.ks.Set(ctx.arg(0), ctx.arg(1))
	return resp.MakeSimpleString("OK")
}

func get(ctx *context) resp.Value {
	v, ok := ctx.ks.Get(ctx.arg(0))
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func keysCmd(ctx *context) resp.Value {
	return resp.MakeBulkStringArray(ctx.ks.Keys())
}

func typeCmd(ctx *context) resp.Value {
	return resp.MakeSimpleString(ctx.ks.Type(ctx.arg(0)))
}

func del(ctx *context) resp.Value {
	if ctx.ks.Del(ctx.arg(0)) {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func expire(ctx *context) resp.Value {
	seconds, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil || seconds < 0 {
		return errReply("Invalid seconds for EXPIRE")
	}
	if !ctx.ks.Expire(ctx.arg(0), seconds) {
		return errReply("EXPIRE failed")
	}
	return resp.MakeSimpleString("OK")
}

func rename(ctx *context) resp.Value {
	if !ctx.ks.Rename(ctx.arg(0), ctx.arg(1)) {
		return errReply("RENAME failed")
	}
	return resp.MakeSimpleString("OK")
}

func llen(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.ks.LLen(ctx.arg(0)))
}

func lpush(ctx *context) resp.Value {
	n := ctx.ks.LPush(ctx.arg(0), tailStrings(ctx, 1)...)
	return resp.MakeInteger(n)
}

func rpush(ctx *context) resp.Value {
	n := ctx.ks.RPush(ctx.arg(0), tailStrings(ctx, 1)...)
	return resp.MakeInteger(n)
}

func lpop(ctx *context) resp.Value {
	v, ok := ctx.ks.LPop(ctx.arg(0))
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func rpop(ctx *context) resp.Value {
	v, ok := ctx.ks.RPop(ctx.arg(0))
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func lrem(ctx *context) resp.Value {
	count, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return errReply("Invalid count for LREM")
	}
	removed := ctx.ks.LRem(ctx.arg(0), count, ctx.arg(2))
	return resp.MakeInteger(removed)
}

func lindex(ctx *context) resp.Value {
	index, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return errReply("Invalid index for LINDEX")
	}
	v, ok := ctx.ks.LIndex(ctx.arg(0), index)
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func lset(ctx *context) resp.Value {
	index, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return errReply("Invalid index for LSET")
	}
	if !ctx.ks.LSet(ctx.arg(0), index, ctx.arg(2)) {
		return errReply("LSET failed")
	}
	return resp.MakeSimpleString("OK")
}

func hset(ctx *context) resp.Value {
	created := ctx.ks.HSet(ctx.arg(0), ctx.arg(1), ctx.arg(2))
	if created {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func hget(ctx *context) resp.Value {
	v, ok := ctx.ks.HGet(ctx.arg(0), ctx.arg(1))
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func hexists(ctx *context) resp.Value {
	if ctx.ks.HExists(ctx.arg(0), ctx.arg(1)) {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func hdel(ctx *context) resp.Value {
	if ctx.ks.HDel(ctx.arg(0), ctx.arg(1)) {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func hgetall(ctx *context) resp.Value {
	fields := ctx.ks.HGetAll(ctx.arg(0))
	flat := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		flat = append(flat, f.Field, f.Value)
	}
	return resp.MakeBulkStringArray(flat)
}

func hkeys(ctx *context) resp.Value {
	return resp.MakeBulkStringArray(ctx.ks.HKeys(ctx.arg(0)))
}

func hvals(ctx *context) resp.Value {
	return resp.MakeBulkStringArray(ctx.ks.HVals(ctx.arg(0)))
}

func hlen(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.ks.HLen(ctx.arg(0)))
}

// hmset sets every field/value pair following the key in one call, always
// reporting success unless the tail doesn't pair up evenly, per spec.md
// §4.3's note on HMSET's odd-arity rejection.
func hmset(ctx *context) resp.Value {
	tail := ctx.args[1:]
	if len(tail)%2 != 0 {
		return errReply("HMSET failed")
	}

	pairs := make(map[string]string, len(tail)/2)
	for i := 0; i < len(tail); i += 2 {
		pairs[string(tail[i].String)] = string(tail[i+1].String)
	}
	ctx.ks.HMSet(ctx.arg(0), pairs)
	return resp.MakeSimpleString("OK")
}

// tailStrings returns every argument from index i to the end as plain
// strings, for the variadic LPUSH/RPUSH argument lists.
func tailStrings(ctx *context, i int) []string {
	out := make([]string, len(ctx.args)-i)
	for j := range out {
		out[j] = ctx.arg(i + j)
	}
	return out
}
