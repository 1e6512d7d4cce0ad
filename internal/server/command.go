package server

import (
	"github.com/lanternkv/lantern/internal/keyspace"
	"github.com/lanternkv/lantern/internal/resp"
)

// context is the per-request bundle handed to a command's execute func: the
// tokens following the command name, and the shared keyspace every
// connection dispatches against. It is never retained past the reply.
type context struct {
	args []resp.Value
	ks   *keyspace.Keyspace
}

// arg returns the i'th token after the command name as a string.
func (c *context) arg(i int) string {
	return string(c.args[i].String)
}

// command is a single dispatch table entry.
type command interface {
	execute(ctx *context) resp.Value
}

// commandFunc adapts a plain func to the command interface, the same
// pattern the teacher's Engine uses for every handler it registers.
type commandFunc func(ctx *context) resp.Value

func (c commandFunc) execute(ctx *context) resp.Value {
	return c(ctx)
}
