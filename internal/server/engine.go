package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lanternkv/lantern/internal/config"
	"github.com/lanternkv/lantern/internal/keyspace"
	"github.com/lanternkv/lantern/internal/persistence"
	"github.com/lanternkv/lantern/internal/resp"
	"go.uber.org/zap"
)

// arities is the minimum token count (command name included) the
// dispatcher requires before it will invoke a command's handler, per
// spec.md §4.3's "Min args (incl. cmd)" column. HMSET's additional
// even-pairs-after-the-key constraint is enforced inside the handler
// itself, since it depends on the exact tail length rather than a simple
// minimum.
var arities = map[string]int{
	"PING":     1,
	"ECHO":     2,
	"FLUSHALL": 1,
	"SET":      3,
	"GET":      2,
	"KEYS":     1,
	"TYPE":     2,
	"DEL":      2,
	"UNLINK":   2,
	"EXPIRE":   3,
	"RENAME":   3,
	"LLEN":     2,
	"LPUSH":    3,
	"RPUSH":    3,
	"LPOP":     2,
	"RPOP":     2,
	"LREM":     4,
	"LINDEX":   3,
	"LSET":     4,
	"HSET":     4,
	"HGET":     3,
	"HEXISTS":  3,
	"HDEL":     3,
	"HGETALL":  2,
	"HKEYS":    2,
	"HVALS":    2,
	"HLEN":     2,
	"HMSET":    4,
	"COMMAND":  1,
}

// errReply builds an Error reply. Every dispatcher-surfaced error carries
// the literal "Error: " prefix the original implementation used for its
// one hard-coded error string ("-Error: Empty command\r\n"); spec.md §9
// says to resolve ambiguous details by following what the original does,
// so the convention is applied uniformly rather than just to that one case.
func errReply(format string, args ...any) resp.Value {
	return resp.MakeError("Error: " + fmt.Sprintf(format, args...))
}

// Engine coordinates command dispatch against a shared Keyspace and owns
// the background services (active-expiration sweep, periodic snapshot)
// that run alongside it.
type Engine struct {
	commands map[string]command
	ks       *keyspace.Keyspace
	cfg      *config.Config
	rdb      *persistence.RDB
	stop     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewEngine registers the full command table, optionally loads an existing
// snapshot, and starts the background GC and snapshot loops if enabled.
func NewEngine(ks *keyspace.Keyspace, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		commands: make(map[string]command, len(arities)),
		ks:       ks,
		cfg:      cfg,
		stop:     make(chan struct{}),
		logger:   logger,
	}
	e.registerCommands()

	if cfg.Persistence.RDB.Enabled {
		e.rdb = persistence.NewRDB(cfg.Persistence.RDB.Filename, logger)
		if err := e.rdb.Load(ks); err != nil {
			logger.Error("failed to load snapshot", zap.Error(err))
		}

		if cfg.Persistence.RDB.Interval != "" {
			go e.startSnapshotLoop(cfg.Persistence.RDB.Interval)
		}
	}

	if cfg.GC.Enabled {
		go e.startGCLoop()
	}

	return e, nil
}

func (e *Engine) registerCommands() {
	e.register("PING", commandFunc(ping))
	e.register("ECHO", commandFunc(echo))
	e.register("FLUSHALL", commandFunc(flushall))
	e.register("SET", commandFunc(set))
	e.register("GET", commandFunc(get))
	e.register("KEYS", commandFunc(keysCmd))
	e.register("TYPE", commandFunc(typeCmd))
	e.register("DEL", commandFunc(del))
	e.register("UNLINK", commandFunc(del))
	e.register("EXPIRE", commandFunc(expire))
	e.register("RENAME", commandFunc(rename))
	e.register("LLEN", commandFunc(llen))
	e.register("LPUSH", commandFunc(lpush))
	e.register("RPUSH", commandFunc(rpush))
	e.register("LPOP", commandFunc(lpop))
	e.register("RPOP", commandFunc(rpop))
	e.register("LREM", commandFunc(lrem))
	e.register("LINDEX", commandFunc(lindex))
	e.register("LSET", commandFunc(lset))
	e.register("HSET", commandFunc(hset))
	e.register("HGET", commandFunc(hget))
	e.register("HEXISTS", commandFunc(hexists))
	e.register("HDEL", commandFunc(hdel))
	e.register("HGETALL", commandFunc(hgetall))
	e.register("HKEYS", commandFunc(hkeys))
	e.register("HVALS", commandFunc(hvals))
	e.register("HLEN", commandFunc(hlen))
	e.register("HMSET", commandFunc(hmset))
	e.register("COMMAND", commandFunc(commandDocs))
}

func (e *Engine) register(name string, cmd command) {
	e.commands[name] = cmd
}

// Execute parses the first token as a command name and dispatches the
// remainder per spec.md §4.3: unknown commands and arity underruns never
// reach a handler, and a zero-length token vector is rejected before
// either check runs.
func (e *Engine) Execute(tokens []resp.Value) resp.Value {
	if len(tokens) == 0 {
		return errReply("Empty command")
	}

	rawName := string(tokens[0].String)
	name := strings.ToUpper(rawName)

	minArity, known := arities[name]
	if !known {
		return errReply("Unknown command '%s'", rawName)
	}
	if len(tokens) < minArity {
		return errReply("%s requires at least %d arguments", name, minArity)
	}

	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command", zap.String("cmd", name), zap.Int("args", len(tokens)-1))
	}

	cmd := e.commands[name]
	ctx := &context{args: tokens[1:], ks: e.ks}
	return cmd.execute(ctx)
}

// startGCLoop periodically sweeps a sample of keys per shard for passed
// deadlines, bounding the memory a burst of cold expired keys could hold
// onto between accesses. Lazy eviction on access is sufficient for
// correctness; this only reclaims keys nobody asks about again. When a
// sweep's hit ratio clears MatchThreshold, the shard is still crowded with
// expired keys, so the next sweep runs immediately instead of waiting out
// the full tick.
func (e *Engine) startGCLoop() {
	ticker := time.NewTicker(e.cfg.GC.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				ratio := e.ks.SweepExpired(e.cfg.GC.SamplesPerCheck)
				if ratio > 0 {
					e.logger.Debug("gc sweep", zap.Float64("expired_ratio", ratio))
				}
				if ratio < e.cfg.GC.MatchThreshold {
					break
				}
			}
		case <-e.stop:
			e.logger.Info("gc loop stopped")
			return
		}
	}
}

// startSnapshotLoop is the background persistence thread of spec.md §5: it
// wakes on a fixed period, writes a snapshot, and keeps going until told
// to stop. A write failure is logged and the next period retries.
func (e *Engine) startSnapshotLoop(intervalStr string) {
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		e.logger.Error("invalid snapshot interval", zap.Error(err))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.rdb.Save(e.ks); err != nil {
				e.logger.Error("periodic snapshot failed", zap.Error(err))
			}
		case <-e.stop:
			return
		}
	}
}

// SaveSnapshot writes a final snapshot. main's shutdown path calls this
// once all connection threads have been joined, matching spec.md §5's
// "a final snapshot is written after all connection threads are joined".
func (e *Engine) SaveSnapshot() error {
	if e.rdb == nil {
		return nil
	}
	return e.rdb.Save(e.ks)
}

// Shutdown stops the background GC and snapshot loops. Safe to call once;
// later calls are no-ops.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
}
